package guardians

import (
	"context"
	"encoding/json"
	"net/http"

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

type GuardianTransport struct {
	Id               string `json:"id"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	NationalId       string `json:"nationalId"`
	RelationshipType string `json:"relationshipType"`
	Note             string `json:"note"`
	Photo            string `json:"photo,omitempty"` // base64 enrollment photo, never echoed back
	Enrolled         bool   `json:"enrolled"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddEndpoint(h.Service),
		decodeGuardianTransport,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) Get(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeGetEndpoint(h.Service),
		decodeGetOrDeleteRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) List(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListEndpoint(h.Service),
		ignorePayload,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Update(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeUpdateEndpoint(h.Service),
		decodeUpdateRequest,
		shared.EncodeResponse200,
		opts...,
	)
}

func (h *HandlerFactory) Delete(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeDeleteEndpoint(h.Service),
		decodeGetOrDeleteRequest,
		shared.EncodeResponse204,
		opts...,
	)
}

func makeAddEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(GuardianTransport)
		guardian, err := svc.AddGuardian(ctx, req)
		if err != nil {
			return nil, err
		}
		return storeToTransport(guardian), nil
	}
}

func makeGetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(GuardianTransport)
		guardian, err := svc.GetGuardian(ctx, req)
		if err != nil {
			return nil, err
		}
		return storeToTransport(guardian), nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		guardians, err := svc.ListGuardians(ctx)
		if err != nil {
			return nil, err
		}
		ret := []GuardianTransport{}
		for _, guardian := range guardians {
			ret = append(ret, storeToTransport(guardian))
		}
		return ret, nil
	}
}

func makeUpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(GuardianTransport)
		guardian, err := svc.UpdateGuardian(ctx, req)
		if err != nil {
			return nil, err
		}
		return storeToTransport(guardian), nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(GuardianTransport)
		if err := svc.DeleteGuardian(ctx, req); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func storeToTransport(guardian store.Guardian) GuardianTransport {
	return GuardianTransport{
		Id:               guardian.GuardianId,
		FirstName:        guardian.FirstName,
		LastName:         guardian.LastName,
		Email:            guardian.Email,
		NationalId:       guardian.NationalId,
		RelationshipType: guardian.RelationshipType,
		Note:             guardian.Note,
		Enrolled:         len(guardian.Embedding) > 0,
	}
}

func decodeGuardianTransport(_ context.Context, r *http.Request) (interface{}, error) {
	var request GuardianTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeGetOrDeleteRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	guardianId, ok := vars["guardianId"]
	if !ok {
		return nil, ErrBadRouting
	}
	return GuardianTransport{Id: guardianId}, nil
}

func decodeUpdateRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	guardianId, ok := vars["guardianId"]
	if !ok {
		return nil, ErrBadRouting
	}
	var request GuardianTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	request.Id = guardianId
	return request, nil
}

func ignorePayload(_ context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case ErrEmptyGuardian, ErrMissingName, ErrMissingRelType, ErrNoUsableFace, store.ErrInvalidRelationshipType:
		w.WriteHeader(http.StatusBadRequest)
	case store.ErrGuardianNotFound:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
