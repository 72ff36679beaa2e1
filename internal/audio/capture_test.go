package audio

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gordonklaus/portaudio"
)

func TestClassify(t *testing.T) {
	hostErr := portaudio.UnanticipatedHostError{Code: -50, Text: "access refused"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"host error", hostErr, ErrPermissionDenied},
		{"wrapped host error", fmt.Errorf("open stream: %w", hostErr), ErrPermissionDenied},
		{"other failure", errors.New("no device"), ErrDeviceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("open input stream", tt.err)
			if !errors.Is(err, tt.want) {
				t.Errorf("classify(%v) = %v, want %v", tt.err, err, tt.want)
			}
		})
	}

	if err := classify("open input stream", nil); err != nil {
		t.Errorf("classify(nil) = %v, want nil", err)
	}
}
