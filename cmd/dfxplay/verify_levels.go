package main

import (
	"fmt"
	"math"

	"github.com/bflamig/dfxplay/internal/kit"
)

// levelTolerance bounds how far a measured peak/RMS may drift from its
// authored value before being reported as a mismatch.
const levelTolerance = 0.02

// verifyLevels walks every robin in font and compares its authored
// peak/rms (when present) against the value FindPeak/FindRMS measures
// from the actually-loaded samples, returning one message per mismatch.
func verifyLevels(font *kit.Font) []string {
	var mismatches []string

	for _, k := range font.Kits {
		for _, d := range k.Drums {
			for _, l := range d.Layers {
				for _, r := range l.Robins {
					if r.Template == nil || r.Template.Buffer() == nil {
						continue
					}
					buf := r.Template.Buffer()

					if r.HasPeak {
						measured, err := buf.FindPeak(0)
						if err != nil {
							mismatches = append(mismatches, fmt.Sprintf(
								"%s/%s/%s: peak check failed: %v", k.Name, d.Name, r.FName, err))
						} else if relDiff(measured, r.Peak) > levelTolerance {
							mismatches = append(mismatches, fmt.Sprintf(
								"%s/%s/%s: authored peak %.4f differs from measured %.4f",
								k.Name, d.Name, r.FName, r.Peak, measured))
						}
					}

					if r.HasRMS {
						measured, err := buf.FindRMS()
						if err != nil {
							mismatches = append(mismatches, fmt.Sprintf(
								"%s/%s/%s: rms check failed: %v", k.Name, d.Name, r.FName, err))
						} else if relDiff(measured, r.RMS) > levelTolerance {
							mismatches = append(mismatches, fmt.Sprintf(
								"%s/%s/%s: authored rms %.4f differs from measured %.4f",
								k.Name, d.Name, r.FName, r.RMS, measured))
						}
					}
				}
			}
		}
	}

	return mismatches
}

func relDiff(measured, authored float64) float64 {
	if authored == 0 {
		return math.Abs(measured)
	}
	return math.Abs(measured-authored) / math.Abs(authored)
}
