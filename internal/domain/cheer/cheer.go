// Package cheer produces the short encouragement shown after an action.
//
// A Remote suggester asks an HTTP text service and falls back to a fixed
// list when the service is not configured, slow or failing.
package cheer

import (
	"context"
	"fmt"

	"github.com/okian/stampcard/internal/domain/model"
)

// Fixed messages for actions that never ask the suggester.
const (
	PenaltyMessage = "喔不！被扣掉一個印章了 😢"
	ResetMessage   = "紀錄已歸零，重新開始努力吧！✨"
	UndoMessage    = "已撤回上一步！✨"
	RedeemMessage  = "WOW! 太棒了! 獎勵自己一個甜甜的時刻吧！🧁"
)

// Fallbacks are used when no remote text is available.
var Fallbacks = []string{
	"太棒了！繼續保持喔！✨",
	"真厲害！離目標又更近一步了！🍀",
	"做的很好，你是最棒的！🌈",
	"好棒的表現，給自己一個掌聲！👏",
	"繼續努力，成功就在不遠處！🚀",
}

// Suggester returns a cheer for name after reaching count stamps in the
// current set.
type Suggester interface {
	Suggest(ctx context.Context, name string, count int) (string, error)
}

// Fallback picks from Fallbacks by count, so the same count always gets the
// same message.
type Fallback struct{}

// Suggest never fails.
func (Fallback) Suggest(_ context.Context, _ string, count int) (string, error) {
	return FallbackFor(count), nil
}

// FallbackFor returns the fallback message for count.
func FallbackFor(count int) string {
	if count < 0 {
		count = -count
	}
	return Fallbacks[count%len(Fallbacks)]
}

// StampCount is the count a cheer refers to after a stamp: the open set size,
// or the full threshold when the stamp just completed a set.
func StampCount(activeCount int) int {
	if activeCount == 0 {
		return model.Threshold
	}
	return activeCount
}

// Prompt is the instruction sent to a text generation service.
func Prompt(name string, count int) string {
	return fmt.Sprintf("User %s just got their %dth stamp out of %d. Give a very short, cute, and encouraging cheer in Traditional Chinese (Taiwan). Max 10 words. Use emojis.",
		name, count, model.Threshold)
}
