package children

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

type ChildTransport struct {
	Id         string              `json:"id"`
	FirstName  string              `json:"firstName"`
	LastName   string              `json:"lastName"`
	Grade      string              `json:"grade"`
	NationalId string              `json:"nationalId"`
	BirthDate  string              `json:"birthDate,omitempty"`
	Status     string              `json:"status"`
	GuardianId string              `json:"guardianId,omitempty"`
	Guardians  []GuardianTransport `json:"guardians,omitempty"`
}

type GuardianTransport struct {
	Id               string `json:"id"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	RelationshipType string `json:"relationshipType"`
}

type linkRequest struct {
	ChildId    string
	GuardianId string
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Add(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeAddEndpoint(h.Service),
		decodeChildTransport,
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

func (h *HandlerFactory) LinkGuardian(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeLinkGuardianEndpoint(h.Service),
		decodeLinkRequest,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) UnlinkGuardian(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeUnlinkGuardianEndpoint(h.Service),
		decodeLinkRequest,
		shared.EncodeResponse204,
		opts...,
	)
}

func makeAddEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ChildTransport)
		child, err := svc.AddChild(ctx, req)
		if err != nil {
			return nil, err
		}
		ret := storeToTransport(child)
		ret.GuardianId = req.GuardianId
		return ret, nil
	}
}

func makeGetEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ChildTransport)
		child, guardians, err := svc.GetChild(ctx, req)
		if err != nil {
			return nil, err
		}

		ret := storeToTransport(child)
		ret.Guardians = []GuardianTransport{}
		for _, guardian := range guardians {
			ret.Guardians = append(ret.Guardians, GuardianTransport{
				Id:               guardian.GuardianId,
				FirstName:        guardian.FirstName,
				LastName:         guardian.LastName,
				RelationshipType: guardian.RelationshipType,
			})
		}
		return ret, nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		children, err := svc.ListChildren(ctx)
		if err != nil {
			return nil, err
		}
		ret := []ChildTransport{}
		for _, child := range children {
			ret = append(ret, storeToTransport(child))
		}
		return ret, nil
	}
}

func makeUpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ChildTransport)
		child, err := svc.UpdateChild(ctx, req)
		if err != nil {
			return nil, err
		}
		return storeToTransport(child), nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ChildTransport)
		if err := svc.DeleteChild(ctx, req); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func makeLinkGuardianEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(linkRequest)
		if err := svc.LinkGuardian(ctx, req.ChildId, req.GuardianId); err != nil {
			return nil, err
		}
		return map[string]string{"childId": req.ChildId, "guardianId": req.GuardianId}, nil
	}
}

func makeUnlinkGuardianEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(linkRequest)
		if err := svc.UnlinkGuardian(ctx, req.ChildId, req.GuardianId); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func storeToTransport(child store.Child) ChildTransport {
	birthDate := ""
	if !child.BirthDate.IsZero() {
		birthDate = child.BirthDate.UTC().Format(time.RFC3339)
	}
	return ChildTransport{
		Id:         child.ChildId,
		FirstName:  child.FirstName,
		LastName:   child.LastName,
		Grade:      child.Grade,
		NationalId: child.NationalId,
		BirthDate:  birthDate,
		Status:     child.Status,
	}
}

func decodeChildTransport(_ context.Context, r *http.Request) (interface{}, error) {
	var request ChildTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	return request, nil
}

func decodeGetOrDeleteRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	childId, ok := vars["childId"]
	if !ok {
		return nil, ErrBadRouting
	}
	return ChildTransport{Id: childId}, nil
}

func decodeUpdateRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	childId, ok := vars["childId"]
	if !ok {
		return nil, ErrBadRouting
	}
	var request ChildTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	request.Id = childId
	return request, nil
}

func decodeLinkRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	childId, ok := vars["childId"]
	if !ok {
		return nil, ErrBadRouting
	}
	guardianId, ok := vars["guardianId"]
	if !ok {
		return nil, ErrBadRouting
	}
	return linkRequest{ChildId: childId, GuardianId: guardianId}, nil
}

func ignorePayload(_ context.Context, r *http.Request) (interface{}, error) {
	return nil, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case ErrEmptyChild, ErrMissingName, ErrNoGuardian, ErrInvalidStatus:
		w.WriteHeader(http.StatusBadRequest)
	case ErrSetGuardian:
		w.WriteHeader(http.StatusConflict)
	case store.ErrChildNotFound, store.ErrGuardianNotFound, store.ErrGuardianNotLinked:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
