package faceapi

// Fixed acceptance gate applied to every frame before it reaches the
// verification engine. The values govern false-accept/false-reject rates
// and must not drift between enrollment and verification.
const (
	MinConfidence = 0.95
	MinSharpness  = 100.0
	MinFaceSide   = 120
)

// PassesQualityGate reports whether the analysis carries exactly one face of
// acceptable detection confidence, sharpness and size, with a usable
// embedding. Frames failing the gate are rejected upstream of the engine.
func PassesQualityGate(a AnalyzeResult) bool {
	if a.FacesDetected != 1 {
		return false
	}
	if len(a.Embedding) == 0 {
		return false
	}
	if a.Confidence < MinConfidence {
		return false
	}
	if a.Sharpness < MinSharpness {
		return false
	}
	minSide := a.Size.W
	if a.Size.H < minSide {
		minSide = a.Size.H
	}
	return minSide >= MinFaceSide
}
