package pickuprules_test

import (
	"context"

	. "github.com/ClearGateLLC/kidpass/pickuprules"
	"github.com/ClearGateLLC/kidpass/store"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
)

var _ = Describe("RuleService", func() {

	var (
		ctx           = context.Background()
		ruleService   Service
		concreteStore *mockStore

		returnedError error
		returnedRule  store.PickupRule
		ruleRef       RuleTransport
	)

	var (
		assertNoError = func() {
			It("should not return an error", func() {
				Expect(returnedError).To(BeNil())
			})
		}
		assertErrorWithCause = func(cause error) {
			It("should return an error", func() {
				Expect(returnedError).NotTo(BeNil())
				Expect(errors.Cause(returnedError)).To(Equal(cause))
			})
		}
	)

	BeforeEach(func() {
		concreteStore = &mockStore{}
		ruleService = &RuleService{
			Store: concreteStore,
		}
		ruleRef = RuleTransport{
			ChildId:     "child-1",
			GuardianId:  "guardian-1",
			AllowedDays: []string{"mon", "wed", "fri"},
			Notes:       "shared custody, alternating weeks",
		}
	})

	Context("UpsertRule", func() {

		JustBeforeEach(func() {
			returnedRule, returnedError = ruleService.UpsertRule(ctx, ruleRef)
		})

		Context("with a valid request", func() {
			BeforeEach(func() {
				concreteStore.On("GetChild", mock.Anything, "child-1").Return(store.Child{ChildId: "child-1"}, nil)
				concreteStore.On("IsGuardianOf", mock.Anything, "guardian-1", "child-1").Return(true)
				concreteStore.On("UpsertPickupRule", mock.Anything, mock.Anything).Return(store.PickupRule{
					RuleId:     "rule-1",
					ChildId:    "child-1",
					GuardianId: "guardian-1",
					Days:       store.Weekdays{"mon", "wed", "fri"},
					Active:     true,
				}, nil)
			})

			assertNoError()

			It("should default the rule to active", func() {
				stored := concreteStore.Calls[2].Arguments.Get(1).(store.PickupRule)
				Expect(stored.Active).To(BeTrue())
				Expect(stored.Days).To(Equal(store.Weekdays{"mon", "wed", "fri"}))
				Expect(returnedRule.RuleId).To(Equal("rule-1"))
			})
		})

		Context("explicitly created inactive", func() {
			BeforeEach(func() {
				inactive := false
				ruleRef.Active = &inactive
				concreteStore.On("GetChild", mock.Anything, "child-1").Return(store.Child{ChildId: "child-1"}, nil)
				concreteStore.On("IsGuardianOf", mock.Anything, "guardian-1", "child-1").Return(true)
				concreteStore.On("UpsertPickupRule", mock.Anything, mock.Anything).Return(store.PickupRule{RuleId: "rule-1", Active: false}, nil)
			})

			assertNoError()

			It("should persist it inactive", func() {
				stored := concreteStore.Calls[2].Arguments.Get(1).(store.PickupRule)
				Expect(stored.Active).To(BeFalse())
			})
		})

		Context("with an explicit empty weekday set", func() {
			BeforeEach(func() {
				ruleRef.AllowedDays = []string{}
				concreteStore.On("GetChild", mock.Anything, "child-1").Return(store.Child{ChildId: "child-1"}, nil)
				concreteStore.On("IsGuardianOf", mock.Anything, "guardian-1", "child-1").Return(true)
				concreteStore.On("UpsertPickupRule", mock.Anything, mock.Anything).Return(store.PickupRule{
					RuleId: "rule-1",
					Days:   store.Weekdays{},
					Active: true,
				}, nil)
			})

			assertNoError()

			It("should persist a rule denying every day", func() {
				stored := concreteStore.Calls[2].Arguments.Get(1).(store.PickupRule)
				Expect(stored.Days).To(Equal(store.Weekdays{}))
				Expect(stored.Active).To(BeTrue())
			})
		})

		Context("with no guardian", func() {
			BeforeEach(func() {
				ruleRef.GuardianId = ""
			})
			assertErrorWithCause(ErrNoGuardian)
		})

		Context("with no weekdays", func() {
			BeforeEach(func() {
				ruleRef.AllowedDays = nil
			})
			assertErrorWithCause(ErrNoDays)
		})

		Context("for a guardian not linked to the child", func() {
			BeforeEach(func() {
				concreteStore.On("GetChild", mock.Anything, "child-1").Return(store.Child{ChildId: "child-1"}, nil)
				concreteStore.On("IsGuardianOf", mock.Anything, "guardian-1", "child-1").Return(false)
			})

			assertErrorWithCause(ErrGuardianNotLinked)

			It("should not touch the rule table", func() {
				concreteStore.AssertNotCalled(GinkgoT(), "UpsertPickupRule")
			})
		})

		Context("for an unknown child", func() {
			BeforeEach(func() {
				concreteStore.On("GetChild", mock.Anything, "child-1").Return(store.Child{}, store.ErrChildNotFound)
			})
			assertErrorWithCause(store.ErrChildNotFound)
		})
	})

	Context("ListRulesOfChild", func() {

		Context("when the child exists", func() {
			It("should return the child with its rules", func() {
				concreteStore.On("GetChild", mock.Anything, "child-1").Return(store.Child{ChildId: "child-1", FirstName: "Luis"}, nil)
				concreteStore.On("ListPickupRulesOfChild", mock.Anything, "child-1").Return([]store.PickupRule{
					{RuleId: "rule-1", GuardianId: "guardian-1", Days: store.Weekdays{"tue"}},
				}, nil)

				child, rules, err := ruleService.ListRulesOfChild(ctx, "child-1")

				Expect(err).To(BeNil())
				Expect(child.FirstName).To(Equal("Luis"))
				Expect(rules).To(HaveLen(1))
				Expect(rules[0].Days).To(Equal(store.Weekdays{"tue"}))
			})
		})

		Context("when the child does not exist", func() {
			It("should return an error", func() {
				concreteStore.On("GetChild", mock.Anything, "child-1").Return(store.Child{}, store.ErrChildNotFound)
				_, _, err := ruleService.ListRulesOfChild(ctx, "child-1")
				Expect(errors.Cause(err)).To(Equal(store.ErrChildNotFound))
			})
		})
	})

	Context("UpdateRule", func() {

		existingRule := store.PickupRule{
			RuleId:     "rule-1",
			ChildId:    "child-1",
			GuardianId: "guardian-1",
			Days:       store.Weekdays{"mon", "wed", "fri"},
			Active:     true,
			Notes:      "shared custody, alternating weeks",
		}

		JustBeforeEach(func() {
			returnedRule, returnedError = ruleService.UpdateRule(ctx, ruleRef)
		})

		Context("changing only the weekday set", func() {
			BeforeEach(func() {
				ruleRef = RuleTransport{Id: "rule-1", ChildId: "child-1", AllowedDays: []string{"sat"}}
				concreteStore.On("GetPickupRule", mock.Anything, "child-1", "rule-1").Return(existingRule, nil)
				concreteStore.On("UpdatePickupRule", mock.Anything, mock.Anything).Return(existingRule, nil)
			})

			assertNoError()

			It("should keep the untouched fields", func() {
				stored := concreteStore.Calls[1].Arguments.Get(1).(store.PickupRule)
				Expect(stored.Days).To(Equal(store.Weekdays{"sat"}))
				Expect(stored.Active).To(BeTrue())
				Expect(stored.Notes).To(Equal(existingRule.Notes))
			})
		})

		Context("deactivating a rule", func() {
			BeforeEach(func() {
				inactive := false
				ruleRef = RuleTransport{Id: "rule-1", ChildId: "child-1", Active: &inactive}
				concreteStore.On("GetPickupRule", mock.Anything, "child-1", "rule-1").Return(existingRule, nil)
				concreteStore.On("UpdatePickupRule", mock.Anything, mock.Anything).Return(existingRule, nil)
			})

			assertNoError()

			It("should flip only the active flag", func() {
				stored := concreteStore.Calls[1].Arguments.Get(1).(store.PickupRule)
				Expect(stored.Active).To(BeFalse())
				Expect(stored.Days).To(Equal(existingRule.Days))
			})
		})

		Context("for an unknown rule", func() {
			BeforeEach(func() {
				ruleRef = RuleTransport{Id: "rule-9", ChildId: "child-1"}
				concreteStore.On("GetPickupRule", mock.Anything, "child-1", "rule-9").Return(store.PickupRule{}, store.ErrPickupRuleNotFound)
			})
			assertErrorWithCause(store.ErrPickupRuleNotFound)
		})
	})

	Context("DeleteRule", func() {

		Context("when the rule does not exist", func() {
			It("should return an error", func() {
				concreteStore.On("DeletePickupRule", mock.Anything, "child-1", "rule-9").Return(store.ErrPickupRuleNotFound)
				err := ruleService.DeleteRule(ctx, "child-1", "rule-9")
				Expect(errors.Cause(err)).To(Equal(store.ErrPickupRuleNotFound))
			})
		})
	})
})
