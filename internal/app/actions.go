package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/stampcard/internal/domain/cheer"
	"github.com/okian/stampcard/internal/domain/model"
	"github.com/okian/stampcard/internal/domain/replay"
	"github.com/okian/stampcard/internal/domain/types"
	"github.com/okian/stampcard/pkg/logger"
	"github.com/okian/stampcard/pkg/metrics"
)

// guard checks an action against the current profile state and fills in the
// event fields the action owns.
type guard func(cur model.ProfileState, e *model.Event) error

// Stamp adds one stamp of variant. An empty variant means the default star.
func (s *Service) Stamp(ctx context.Context, p model.Profile, variant string) (types.ActionResult, error) {
	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = model.DefaultVariant
	}
	res, err := s.act(ctx, p, model.KindStamp, func(_ model.ProfileState, e *model.Event) error {
		if _, err := model.LookupVariant(variant); err != nil {
			return err
		}
		e.Variant = variant
		return nil
	})
	if err != nil {
		return res, err
	}

	count := cheer.StampCount(res.Profile.ActiveCount)
	msg, cerr := s.cheer.Suggest(ctx, res.Profile.DisplayName, count)
	if cerr != nil || msg == "" {
		msg = cheer.FallbackFor(count)
	}
	res.Message = msg
	return res, nil
}

// Penalty removes one stamp from the open set.
func (s *Service) Penalty(ctx context.Context, p model.Profile) (types.ActionResult, error) {
	res, err := s.act(ctx, p, model.KindPenalty, func(cur model.ProfileState, _ *model.Event) error {
		if cur.ActiveCount == 0 {
			return ErrNothingToPenalize
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	res.Message = cheer.PenaltyMessage
	return res, nil
}

// Undo removes the latest stamp. It is only allowed while the newest history
// record is still a stamp.
func (s *Service) Undo(ctx context.Context, p model.Profile) (types.ActionResult, error) {
	res, err := s.act(ctx, p, model.KindUndo, func(cur model.ProfileState, _ *model.Event) error {
		last, ok := cur.LastRecord()
		if !ok {
			return ErrNothingToUndo
		}
		if last.Kind != model.RecordStamp {
			return ErrUndoNotStamp
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	res.Message = cheer.UndoMessage
	return res, nil
}

// Reset clears the card. Name and avatar are kept.
func (s *Service) Reset(ctx context.Context, p model.Profile) (types.ActionResult, error) {
	res, err := s.act(ctx, p, model.KindReset, nil)
	if err != nil {
		return res, err
	}
	res.Message = cheer.ResetMessage
	return res, nil
}

// Redeem exchanges up to ten stamps for a gift.
func (s *Service) Redeem(ctx context.Context, p model.Profile) (types.ActionResult, error) {
	res, err := s.act(ctx, p, model.KindRedeemGift, func(cur model.ProfileState, _ *model.Event) error {
		if cur.ValidStamps() == 0 {
			return ErrNothingToRedeem
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	res.Message = cheer.RedeemMessage
	return res, nil
}

// Rename sets the display name.
func (s *Service) Rename(ctx context.Context, p model.Profile, name string) (types.ActionResult, error) {
	name = strings.TrimSpace(name)
	return s.act(ctx, p, model.KindUpdateProfile, func(_ model.ProfileState, e *model.Event) error {
		if !model.Present(name) {
			return ErrEmptyName
		}
		e.DisplayName = name
		return nil
	})
}

// ChangeAvatar sets the avatar reference.
func (s *Service) ChangeAvatar(ctx context.Context, p model.Profile, avatar string) (types.ActionResult, error) {
	avatar = strings.TrimSpace(avatar)
	return s.act(ctx, p, model.KindUpdateProfile, func(_ model.ProfileState, e *model.Event) error {
		if !model.Present(avatar) {
			return ErrEmptyAvatar
		}
		e.AvatarRef = avatar
		return nil
	})
}

// act validates, folds and queues one event under the state lock, so the
// queue sees events in the order they were applied locally.
func (s *Service) act(ctx context.Context, p model.Profile, kind model.EventKind, check guard) (types.ActionResult, error) {
	if !p.Valid() {
		metrics.RecordRejectedAction("unknown_profile")
		return types.ActionResult{}, fmt.Errorf("%w: %q", model.ErrUnknownProfile, p)
	}

	s.stateMu.Lock()
	cur := s.state.Profile(p)
	e := model.Event{
		Profile:     p,
		Kind:        kind,
		DisplayName: cur.DisplayName,
		AvatarRef:   cur.AvatarRef,
		OccurredAt:  s.now().UTC(),
	}
	if check != nil {
		if err := check(cur, &e); err != nil {
			s.stateMu.Unlock()
			metrics.RecordRejectedAction(rejectReason(err))
			return types.ActionResult{Profile: types.NewProfileView(p, cur.Clone())}, fmt.Errorf("%s: %w", kind, err)
		}
	}
	next := replay.Fold(cur, e)
	s.state.Set(p, next)
	queued := s.enqueue(context.WithoutCancel(ctx), e)
	s.stateMu.Unlock()

	metrics.RecordOptimisticEvent(string(kind))
	metrics.UpdateProfile(string(p), next.ActiveCount, next.CompletedSets)
	if !queued {
		_ = metrics.RecordAppend(metrics.OutcomeDropped)
		s.logger.Warn(ctx, "append queue unavailable, event kept locally only",
			logger.String("profile", string(p)),
			logger.String("type", string(kind)),
		)
	}

	return types.ActionResult{
		Event:   e,
		Profile: types.NewProfileView(p, next.Clone()),
		Queued:  queued,
	}, nil
}

// enqueue returns false before Start and after Stop.
func (s *Service) enqueue(ctx context.Context, e model.Event) bool {
	q := s.queue.Load()
	if q == nil {
		return false
	}
	return q.Enqueue(ctx, e)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyName):
		return "empty_name"
	case errors.Is(err, ErrEmptyAvatar):
		return "empty_avatar"
	case errors.Is(err, model.ErrUnknownVariant):
		return "unknown_variant"
	case errors.Is(err, ErrNothingToPenalize):
		return "nothing_to_penalize"
	case errors.Is(err, ErrNothingToUndo), errors.Is(err, ErrUndoNotStamp):
		return "nothing_to_undo"
	case errors.Is(err, ErrNothingToRedeem):
		return "nothing_to_redeem"
	default:
		return "other"
	}
}
