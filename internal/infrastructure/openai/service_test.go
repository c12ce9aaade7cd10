package openai

import (
	"testing"
)

func TestNewService(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		if svc := NewService("", ""); svc != nil {
			t.Error("Expected nil service without an API key")
		}
	})

	t.Run("custom base url", func(t *testing.T) {
		svc := NewService("sk-test", "http://localhost:1234/v1")
		if svc == nil {
			t.Fatal("Expected service to be created")
		}
		if svc.GetClient() == nil {
			t.Error("Expected client to be set")
		}
	})
}
