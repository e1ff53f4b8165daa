package media

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Probe returns the duration of a clip using ffprobe.
func Probe(src string) (time.Duration, error) {
	out, err := ffmpeg.Probe(src)
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w", src, err)
	}
	return parseProbeDuration(out)
}

func parseProbeDuration(out string) (time.Duration, error) {
	var result struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		return 0, fmt.Errorf("parse probe output: %w", err)
	}
	secs, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", result.Format.Duration, err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
