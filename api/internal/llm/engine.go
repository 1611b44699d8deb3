// Package llm describes the chat-completion backends used for grading.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownEngine = errors.New("llm: unknown engine")
	ErrEmptyResponse = errors.New("llm: empty response")
	ErrNoAPIKey      = errors.New("llm: api key is empty")
)

// Request: один запрос к модели.
type Request struct {
	System      string
	User        string
	Temperature float32
	// JSON: просить у провайдера строгий JSON-режим
	JSON bool
}

type Engine interface {
	Name() string
	GetModel() string
	Complete(ctx context.Context, req Request) (string, error)
}

const (
	NameGPT    = "gpt"
	NameGemini = "gemini"
)

// Engines: набор доступных движков; nil означает "не настроен".
type Engines struct {
	OpenAI  Engine
	Gemini  Engine
	Default string
}

// GetEngine возвращает движок по имени. Пустое имя: движок по умолчанию.
func (e *Engines) GetEngine(name string) (Engine, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = strings.ToLower(e.Default)
	}
	var eng Engine
	switch name {
	case NameGPT, "openai":
		eng = e.OpenAI
	case NameGemini:
		eng = e.Gemini
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
	if eng == nil {
		return nil, fmt.Errorf("%w: %q is not configured", ErrUnknownEngine, name)
	}
	return eng, nil
}

// Names: имена настроенных движков.
func (e *Engines) Names() []string {
	var out []string
	if e.OpenAI != nil {
		out = append(out, NameGPT)
	}
	if e.Gemini != nil {
		out = append(out, NameGemini)
	}
	return out
}
