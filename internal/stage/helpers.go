package stage

import (
	"subweave/internal/services"
	"subweave/internal/subtitles"
)

// LoadTranscript parses the SRT artifact a previous stage produced. On
// failure it returns a services.ErrValidation suitable for stage Execute
// methods; the hint names the stage to rerun.
func LoadTranscript(path, stageName, rerunHint string) (*subtitles.Transcript, error) {
	transcript, err := subtitles.ParseSRTFile(path)
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation, stageName, "load transcript",
			rerunHint, err)
	}
	if err := transcript.Validate(); err != nil {
		return nil, services.Wrap(
			services.ErrValidation, stageName, "validate transcript",
			rerunHint, err)
	}
	return transcript, nil
}
