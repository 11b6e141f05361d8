package cinemeta

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/glefebvre/shufflarr/internal/errors"
)

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{})
	if client.httpClient.Timeout != defaultTimeout {
		t.Errorf("expected default timeout, got %v", client.httpClient.Timeout)
	}

	custom := NewClient(Config{Timeout: 2 * time.Second})
	if custom.httpClient.Timeout != 2*time.Second {
		t.Errorf("expected custom timeout, got %v", custom.httpClient.Timeout)
	}
}

func TestFetchTopRejectsInvalidKind(t *testing.T) {
	client := NewClient(Config{})

	_, err := client.FetchTop(context.Background(), "music", 10)
	if apperrors.GetErrorCode(err) != apperrors.CodeMissingConfig {
		t.Errorf("expected missing-config code for invalid kind, got %v", err)
	}

	_, err = client.FetchTop(context.Background(), "", 10)
	if apperrors.GetErrorCode(err) != apperrors.CodeMissingConfig {
		t.Errorf("expected missing-config code for empty kind, got %v", err)
	}
}
