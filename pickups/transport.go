package pickups

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ClearGateLLC/kidpass/shared"
	"github.com/ClearGateLLC/kidpass/store"

	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

var (
	ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")
)

type HistoryTransport struct {
	Child   ChildSummaryTransport `json:"child"`
	Pickups []PickupTransport     `json:"pickups"`
}

type ChildSummaryTransport struct {
	Id        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Grade     string `json:"grade"`
}

type PickupTransport struct {
	Id               string                    `json:"id"`
	PickupTime       string                    `json:"pickupTime"`
	RelationshipType string                    `json:"relationshipType"`
	PickedBy         *GuardianSummaryTransport `json:"pickedBy,omitempty"`
}

type GuardianSummaryTransport struct {
	Id        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) List(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListEndpoint(h.Service),
		decodeChildRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		childId := request.(string)
		child, entries, err := svc.ListPickupsOfChild(ctx, childId)
		if err != nil {
			return nil, err
		}

		ret := HistoryTransport{
			Child: ChildSummaryTransport{
				Id:        child.ChildId,
				FirstName: child.FirstName,
				LastName:  child.LastName,
				Grade:     child.Grade,
			},
			Pickups: []PickupTransport{},
		}
		for _, entry := range entries {
			pickup := PickupTransport{
				Id:               entry.Record.PickupId,
				PickupTime:       entry.Record.PickupTime.Format(time.RFC3339),
				RelationshipType: entry.Record.RelationshipType,
			}
			if entry.Guardian.GuardianId != "" {
				pickup.PickedBy = &GuardianSummaryTransport{
					Id:        entry.Guardian.GuardianId,
					FirstName: entry.Guardian.FirstName,
					LastName:  entry.Guardian.LastName,
				}
			}
			ret.Pickups = append(ret.Pickups, pickup)
		}
		return ret, nil
	}
}

func decodeChildRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	childId, ok := vars["childId"]
	if !ok {
		return nil, ErrBadRouting
	}
	return childId, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case store.ErrChildNotFound:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
