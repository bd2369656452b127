package intake

import (
	"context"

	"github.com/alkime/intake/internal/audio"
	"github.com/alkime/intake/internal/clinical"
	"github.com/alkime/intake/internal/gateway"
)

// Gateway is the coordinator's view of the backend: four single-shot
// operations, each returning either a typed result or a typed error.
type Gateway interface {
	ProcessAudio(ctx context.Context, req gateway.ProcessAudioRequest) (*gateway.Transcript, error)
	ExtractClinicalData(ctx context.Context, transcriptID, transcriptText string) (*gateway.Extraction, error)
	UpdateClinicalData(ctx context.Context, transcriptID string, rec clinical.Record) error
	GenerateReport(ctx context.Context, transcriptID string) (*gateway.ReportHandle, error)
}

// Recorder captures microphone audio into a clip. Start failing with
// audio.ErrDeviceUnavailable keeps the workflow in the setup stage.
// Discard releases the device without producing a clip and must be a
// no-op when the recorder is idle.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) (*audio.Clip, error)
	Discard(ctx context.Context) error
}
