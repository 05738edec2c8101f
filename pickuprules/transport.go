package pickuprules

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

type RuleTransport struct {
	Id          string   `json:"id"`
	ChildId     string   `json:"childId"`
	GuardianId  string   `json:"guardianId"`
	AllowedDays []string `json:"allowedDays"`
	Active      *bool    `json:"active,omitempty"`
	Notes       string   `json:"notes"`
}

type RuleListTransport struct {
	Child ChildSummaryTransport `json:"child"`
	Rules []RuleTransport       `json:"rules"`
}

type ChildSummaryTransport struct {
	Id        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Grade     string `json:"grade"`
}

type HandlerFactory struct {
	Service Service `inject:""`
}

func (h *HandlerFactory) Upsert(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeUpsertEndpoint(h.Service),
		decodeRuleTransport,
		shared.EncodeResponse201,
		opts...,
	)
}

func (h *HandlerFactory) List(opts []kithttp.ServerOption) *kithttp.Server {
	return kithttp.NewServer(
		makeListEndpoint(h.Service),
		decodeChildRequest,
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
		decodeRuleIdRequest,
		shared.EncodeResponse204,
		opts...,
	)
}

func makeUpsertEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(RuleTransport)
		rule, err := svc.UpsertRule(ctx, req)
		if err != nil {
			return nil, err
		}
		return storeToTransport(rule), nil
	}
}

func makeListEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(RuleTransport)
		child, rules, err := svc.ListRulesOfChild(ctx, req.ChildId)
		if err != nil {
			return nil, err
		}

		ret := RuleListTransport{
			Child: ChildSummaryTransport{
				Id:        child.ChildId,
				FirstName: child.FirstName,
				LastName:  child.LastName,
				Grade:     child.Grade,
			},
			Rules: []RuleTransport{},
		}
		for _, rule := range rules {
			ret.Rules = append(ret.Rules, storeToTransport(rule))
		}
		return ret, nil
	}
}

func makeUpdateEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(RuleTransport)
		rule, err := svc.UpdateRule(ctx, req)
		if err != nil {
			return nil, err
		}
		return storeToTransport(rule), nil
	}
}

func makeDeleteEndpoint(svc Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(RuleTransport)
		if err := svc.DeleteRule(ctx, req.ChildId, req.Id); err != nil {
			return nil, err
		}
		return nil, nil
	}
}

func storeToTransport(rule store.PickupRule) RuleTransport {
	active := rule.Active
	return RuleTransport{
		Id:          rule.RuleId,
		ChildId:     rule.ChildId,
		GuardianId:  rule.GuardianId,
		AllowedDays: []string(rule.Days),
		Active:      &active,
		Notes:       rule.Notes,
	}
}

func decodeRuleTransport(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	childId, ok := vars["childId"]
	if !ok {
		return nil, ErrBadRouting
	}
	var request RuleTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	request.ChildId = childId
	return request, nil
}

func decodeChildRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	childId, ok := vars["childId"]
	if !ok {
		return nil, ErrBadRouting
	}
	return RuleTransport{ChildId: childId}, nil
}

func decodeUpdateRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	childId, ok := vars["childId"]
	if !ok {
		return nil, ErrBadRouting
	}
	ruleId, ok := vars["ruleId"]
	if !ok {
		return nil, ErrBadRouting
	}
	var request RuleTransport
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		return nil, err
	}
	request.ChildId = childId
	request.Id = ruleId
	return request, nil
}

func decodeRuleIdRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	childId, ok := vars["childId"]
	if !ok {
		return nil, ErrBadRouting
	}
	ruleId, ok := vars["ruleId"]
	if !ok {
		return nil, ErrBadRouting
	}
	return RuleTransport{ChildId: childId, Id: ruleId}, nil
}

// encode errors from business-logic
func EncodeError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	switch errors.Cause(err) {
	case ErrNoGuardian, ErrNoDays, store.ErrInvalidWeekday:
		w.WriteHeader(http.StatusBadRequest)
	case ErrGuardianNotLinked:
		w.WriteHeader(http.StatusUnprocessableEntity)
	case store.ErrChildNotFound, store.ErrPickupRuleNotFound:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
	})
}
