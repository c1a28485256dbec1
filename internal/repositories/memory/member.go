package memory

import (
	"context"
	"sort"
	"time"

	"vidanet/internal/models"
	"vidanet/internal/repositories"
)

type memberRepo struct {
	store *Store
}

func (r *memberRepo) GetByID(ctx context.Context, id uint) (*models.Member, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	m, ok := r.store.members[id]
	if !ok {
		return nil, repositories.ErrMemberNotFound
	}
	out := m
	return &out, nil
}

func (r *memberRepo) ListAll(ctx context.Context) ([]models.Member, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.Member, 0, len(r.store.members))
	for _, m := range r.store.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memberRepo) ReplaceVolumes(ctx context.Context, periodID uint, updates []repositories.VolumeUpdate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for key := range r.store.volumes {
		if key.PeriodID == periodID {
			delete(r.store.volumes, key)
		}
	}
	now := time.Now().UTC()
	for _, u := range updates {
		m, ok := r.store.members[u.MemberID]
		if !ok {
			return repositories.ErrMemberNotFound
		}
		m.PVCache = u.PV
		m.PVGCache = u.PVG
		m.VNCache = u.VN
		r.store.members[u.MemberID] = m

		r.store.volumes[memberPeriodKey{u.MemberID, periodID}] = models.MemberVolume{
			MemberID:  u.MemberID,
			PeriodID:  periodID,
			PV:        u.PV,
			PVG:       u.PVG,
			VN:        u.VN,
			CreatedAt: now,
		}
	}
	return nil
}

func (r *memberRepo) UpdateRanks(ctx context.Context, updates []repositories.RankUpdate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range updates {
		m, ok := r.store.members[u.MemberID]
		if !ok {
			return repositories.ErrMemberNotFound
		}
		m.CurrentRankID = u.RankID
		m.HighestRankID = u.HighestRankID
		if u.Qualified {
			m.Status = models.MemberStatusQualified
		} else {
			m.Status = models.MemberStatusNotQualified
		}
		r.store.members[u.MemberID] = m
	}
	return nil
}

func (r *memberRepo) GetVolume(ctx context.Context, memberID, periodID uint) (*models.MemberVolume, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	v, ok := r.store.volumes[memberPeriodKey{memberID, periodID}]
	if !ok {
		return nil, repositories.ErrVolumeNotFound
	}
	out := v
	return &out, nil
}
