package service

import (
	"context"
	"time"

	"availability-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReconcileHotel приводит пару ASSIGNED/AVAILABLE в согласие с активными
// бронями. Два set-based прохода, порядок важен: сначала снимаем ASSIGNED без
// брони, затем назначаем AVAILABLE с бронью. Остальные статусы не трогаем.
func (s *availabilityService) ReconcileHotel(ctx context.Context, hotelID uuid.UUID, from, to time.Time) (*ReconcileResult, error) {
	if hotelID == uuid.Nil {
		return nil, ErrHotelRequired
	}
	if !from.Before(to) {
		return nil, ErrWindowRequired
	}

	var freed, assigned []repository.RoomDate
	err := s.repo.WithTx(func(tx *repository.Repository) error {
		var txErr error
		freed, txErr = tx.Availability.ReconcileAssignedToAvailable(ctx, hotelID, from, to)
		if txErr != nil {
			return txErr
		}
		assigned, txErr = tx.Availability.ReconcileAvailableToAssigned(ctx, hotelID, from, to)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	roomIDs, dates := splitRoomDates(append(append([]repository.RoomDate{}, freed...), assigned...))
	productIDs := s.fireCascade(ctx, hotelID, roomIDs, dates)

	return &ReconcileResult{
		Freed:          len(freed),
		Assigned:       len(assigned),
		RoomProductIDs: productIDs,
	}, nil
}

// ReconcileAll обходит отели последовательно, каждый в своей транзакции.
// Сбой одного отеля логируется и считается — остальные отели продолжают.
func (s *availabilityService) ReconcileAll(ctx context.Context, from, to time.Time) (*ReconcileRunResult, error) {
	if !from.Before(to) {
		return nil, ErrWindowRequired
	}

	hotels, err := s.repo.Rooms.ListHotelIDs(ctx)
	if err != nil {
		return nil, err
	}

	res := &ReconcileRunResult{Hotels: len(hotels)}
	for _, hotelID := range hotels {
		r, err := s.ReconcileHotel(ctx, hotelID, from, to)
		if err != nil {
			res.Failed++
			s.log.Error("hotel reconciliation failed",
				zap.String("hotel_id", hotelID.String()), zap.Error(err))
			continue
		}
		res.Flipped += r.Freed + r.Assigned
	}

	s.log.Info("reconciliation run finished",
		zap.Int("hotels", res.Hotels),
		zap.Int("failed", res.Failed),
		zap.Int("flipped", res.Flipped))
	return res, nil
}
