package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-formguard/pkg/guard"
)

type stubDriver struct {
	inputs       []string
	inputErr     error
	confirm      []bool
	infoMessages []string
	prompts      []InputConfig
	inputPos     int
	confirmPos   int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.prompts = append(s.prompts, cfg)
	if s.inputErr != nil {
		return "", s.inputErr
	}
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func TestAsk_AcceptsFirstValidAnswer(t *testing.T) {
	driver := &stubDriver{inputs: []string{"  example.com "}}
	p := NewPrompter(WithPromptDriver(driver))

	got, err := p.Ask(context.Background())
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got != "example.com" {
		t.Fatalf("expected trimmed answer, got %q", got)
	}
	if len(driver.infoMessages) != 0 {
		t.Fatalf("expected no messages, got %v", driver.infoMessages)
	}
	if driver.prompts[0].Message != "域名" {
		t.Fatalf("expected default locale label, got %q", driver.prompts[0].Message)
	}
}

func TestAsk_RepromptsAfterRejection(t *testing.T) {
	driver := &stubDriver{inputs: []string{"example", "-bad-.com", "good.cn"}}
	p := NewPrompter(WithPromptDriver(driver), WithTheme(Theme{ErrorPrefix: "! "}))

	got, err := p.Ask(context.Background())
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got != "good.cn" {
		t.Fatalf("unexpected answer %q", got)
	}
	if len(driver.infoMessages) != 2 {
		t.Fatalf("expected two rejection messages, got %v", driver.infoMessages)
	}
	if driver.infoMessages[0] != "! "+guard.DefaultMessage {
		t.Fatalf("unexpected message %q", driver.infoMessages[0])
	}
}

func TestAsk_TooManyAttempts(t *testing.T) {
	driver := &stubDriver{inputs: []string{"a", "b", "c", "valid.com"}}
	p := NewPrompter(WithPromptDriver(driver))

	_, err := p.Ask(context.Background())
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if driver.inputPos != DefaultMaxAttempts {
		t.Fatalf("expected %d prompts, got %d", DefaultMaxAttempts, driver.inputPos)
	}
}

func TestAsk_CustomMaxAttempts(t *testing.T) {
	driver := &stubDriver{inputs: []string{"a", "valid.com"}}
	p := NewPrompter(WithPromptDriver(driver), WithMaxAttempts(1))

	if _, err := p.Ask(context.Background()); !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts after one attempt, got %v", err)
	}
}

func TestAsk_PropagatesAbort(t *testing.T) {
	driver := &stubDriver{inputErr: ErrAborted}
	p := NewPrompter(WithPromptDriver(driver))

	if _, err := p.Ask(context.Background()); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestAsk_EnglishLocale(t *testing.T) {
	driver := &stubDriver{inputs: []string{"nope", "ok.com"}}
	p := NewPrompter(WithPromptDriver(driver), WithGuard(guard.Config{Locale: "en-US"}))

	if _, err := p.Ask(context.Background()); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if driver.prompts[0].Message != "Domain" {
		t.Fatalf("expected english label, got %q", driver.prompts[0].Message)
	}
	if !strings.HasPrefix(driver.infoMessages[0], "Please enter a valid domain") {
		t.Fatalf("expected english rejection, got %q", driver.infoMessages[0])
	}
}

func TestAsk_CustomValidator(t *testing.T) {
	driver := &stubDriver{inputs: []string{"example.com", "internal"}}
	p := NewPrompter(WithPromptDriver(driver), WithGuard(guard.Config{
		Message:   "single label only",
		Validator: func(v string) bool { return !strings.Contains(v, ".") },
	}))

	got, err := p.Ask(context.Background())
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if got != "internal" || driver.infoMessages[0] != "single label only" {
		t.Fatalf("unexpected outcome %q %v", got, driver.infoMessages)
	}
}

func TestConfirmAndInfo(t *testing.T) {
	driver := &stubDriver{confirm: []bool{true}}
	p := NewPrompter(WithPromptDriver(driver), WithTheme(Theme{InfoPrefix: "> "}))

	ok, err := p.Confirm(context.Background(), "again?", false)
	if err != nil || !ok {
		t.Fatalf("confirm: %v %v", ok, err)
	}
	if err := p.Info(context.Background(), "done"); err != nil {
		t.Fatalf("info: %v", err)
	}
	if driver.infoMessages[0] != "> done" {
		t.Fatalf("unexpected info %q", driver.infoMessages[0])
	}
}
