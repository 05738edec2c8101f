package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ClearGateLLC/kidpass/matching"
	"github.com/ClearGateLLC/kidpass/shared"
	"github.com/ClearGateLLC/kidpass/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/pkg/errors"
)

// VerifyRequest carries either a raw frame or, when the embedding is
// extracted upstream, the probe vector directly.
type VerifyRequest struct {
	Image     string    `json:"image,omitempty"`
	Embedding []float64 `json:"embedding,omitempty"`
}

type GuardianSummaryTransport struct {
	Id               string `json:"id"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email,omitempty"`
	NationalId       string `json:"nationalId,omitempty"`
	RelationshipType string `json:"relationshipType"`
	Note             string `json:"note,omitempty"`
}

type ChildSummaryTransport struct {
	Id           string   `json:"id"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Grade        string   `json:"grade"`
	AllowedToday bool     `json:"allowedToday"`
	Days         []string `json:"days"`
}

type OutcomeTransport struct {
	Result      string                    `json:"result"`
	Message     string                    `json:"message"`
	Match       *GuardianSummaryTransport `json:"match,omitempty"`
	Children    []ChildSummaryTransport   `json:"children,omitempty"`
	PickedChild *ChildSummaryTransport    `json:"pickedChild,omitempty"`
	PickedBy    *GuardianSummaryTransport `json:"pickedBy,omitempty"`
	PickedAt    string                    `json:"pickedAt,omitempty"`
	Similarity  float64                   `json:"similarity"`
	Threshold   float64                   `json:"threshold"`
}

var resultMessages = map[string]string{
	ResultNoFaceDetected:    "No usable face was detected, please try again",
	ResultNotRegistered:     "Person is not registered",
	ResultRegistered:        "Pickup registered",
	ResultAlreadyRegistered: "This pickup was already registered today",
	ResultPickedByOther:     "Child was already picked up by another person today",
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Verify(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeVerifyEndpoint(h.Service),
		decodeVerifyRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeVerifyEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(VerifyRequest)

		var outcome Outcome
		var err error
		if len(req.Embedding) > 0 {
			outcome, err = svc.Authorize(ctx, store.Embedding(req.Embedding), time.Now())
		} else {
			outcome, err = svc.VerifyImage(ctx, req.Image, time.Now())
		}
		if err != nil {
			return nil, err
		}

		return outcomeToTransport(outcome), nil
	}
}

func outcomeToTransport(outcome Outcome) OutcomeTransport {
	ret := OutcomeTransport{
		Result:     outcome.Result,
		Message:    resultMessages[outcome.Result],
		Similarity: outcome.Score,
		Threshold:  matching.Threshold,
	}

	switch outcome.Result {
	case ResultNoFaceDetected, ResultNotRegistered:
		return ret
	}

	match := guardianToSummary(outcome.Guardian)
	ret.Match = &match
	ret.Children = []ChildSummaryTransport{}
	for _, summary := range outcome.Children {
		ret.Children = append(ret.Children, ChildSummaryTransport{
			Id:           summary.Child.ChildId,
			FirstName:    summary.Child.FirstName,
			LastName:     summary.Child.LastName,
			Grade:        summary.Child.Grade,
			AllowedToday: summary.AllowedToday,
			Days:         summary.Days,
		})
	}

	if outcome.Result == ResultPickedByOther {
		pickedChild := ChildSummaryTransport{
			Id:        outcome.ConflictingChild.ChildId,
			FirstName: outcome.ConflictingChild.FirstName,
			LastName:  outcome.ConflictingChild.LastName,
			Grade:     outcome.ConflictingChild.Grade,
		}
		pickedBy := guardianToSummary(outcome.OtherGuardian)
		ret.PickedChild = &pickedChild
		ret.PickedBy = &pickedBy
		ret.PickedAt = outcome.PickupTime.Format(time.RFC3339)
	}

	return ret
}

// guardianToSummary exposes the free-text note only for tutors and other
// family members; for parents it carries nothing a terminal should show.
func guardianToSummary(guardian store.Guardian) GuardianSummaryTransport {
	note := ""
	if guardian.RelationshipType == store.REL_TUTOR || guardian.RelationshipType == store.REL_OTHER_FAMILY {
		note = guardian.Note
	}
	return GuardianSummaryTransport{
		Id:               guardian.GuardianId,
		FirstName:        guardian.FirstName,
		LastName:         guardian.LastName,
		Email:            guardian.Email,
		NationalId:       guardian.NationalId,
		RelationshipType: guardian.RelationshipType,
		Note:             note,
	}
}

func decodeVerifyRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var request VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	if request.Image == "" && len(request.Embedding) == 0 {
		return nil, ErrNoUsableEmbedding
	}
	return request, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case ErrEmptyImage, ErrNoUsableEmbedding:
		w.WriteHeader(http.StatusBadRequest)
	case ErrLedgerContention:
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
