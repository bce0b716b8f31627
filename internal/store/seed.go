package store

import (
	"context"
	"fmt"
	"time"

	"github.com/oliveapp/olive/internal/contextmgr"
	"github.com/oliveapp/olive/internal/conversation"
	"github.com/oliveapp/olive/internal/intent"
)

// Seed loads a small demo household for userID: a handful of open tasks,
// a short conversation, memories, a skill and two days of activity.
func (s *SQLiteStore) Seed(ctx context.Context, userID string, now time.Time) error {
	tomorrow := now.AddDate(0, 0, 1)
	tasks := []struct {
		summary  string
		due      *time.Time
		priority string
	}{
		{"Dentist appointment", &tomorrow, "medium"},
		{"Dental Milka", nil, ""},
		{"Research The Happy Howl for Milka", nil, ""},
		{"Dental cleaning", nil, "low"},
		{"Call Milka", nil, ""},
		{"Buy milk", nil, ""},
		{"Renew car insurance", nil, "high"},
	}
	for _, t := range tasks {
		if _, err := s.AddTask(ctx, userID, t.summary, t.due, t.priority); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	turns := []conversation.Message{
		{Role: conversation.RoleUser, Content: "add dentist appointment tomorrow"},
		{Role: conversation.RoleAssistant, Content: "Added Dentist appointment for tomorrow."},
	}
	for _, m := range turns {
		if err := s.AppendMessage(ctx, userID, m); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	if err := s.AppendOutbound(ctx, userID, "Good morning! Renew car insurance is due this week."); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	memories := []intent.Memory{
		{Title: "Wifi password", Content: "olive-garden-42", Category: "home"},
		{Title: "Dentist", Content: "Dr. Rossi, Tuesdays are easiest", Category: "health"},
	}
	for _, m := range memories {
		if err := s.AddMemory(ctx, userID, m); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	if err := s.AddSkill(ctx, userID, intent.Skill{SkillID: "recipes", Name: "Recipe Box"}); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	if err := s.SetProfile(ctx, userID, Profile{
		Text:        "Lives with partner Sam. Prefers morning reminders. Vegetarian household.",
		Language:    "en",
		PartnerName: "Sam",
	}); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := s.SetDailyLog(ctx, userID, now, "Added dentist appointment.\nAsked about groceries."); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if err := s.SetDailyLog(ctx, userID, now.AddDate(0, 0, -1), "Completed laundry.\nPaid electricity bill.\nPlanned weekend trip.\nCalled Milka."); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	patterns := []contextmgr.Pattern{
		{Description: "Adds grocery items on Sunday evenings", Confidence: 0.82},
		{Description: "Completes chores after 6pm", Confidence: 0.65},
		{Description: "Asks for weekly summaries on Fridays", Confidence: 0.4},
	}
	for _, p := range patterns {
		if err := s.AddPattern(ctx, userID, p); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}
