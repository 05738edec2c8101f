package children_test

import (
	"context"
	"time"

	. "github.com/ClearGateLLC/kidpass/children"
	"github.com/ClearGateLLC/kidpass/store"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
)

var _ = Describe("ChildService", func() {

	var (
		ctx           = context.Background()
		childService  Service
		concreteStore *mockStore

		returnedError     error
		returnedChild     store.Child
		returnedGuardians []store.Guardian
		childRef          ChildTransport
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
		childService = &ChildService{
			Store: concreteStore,
		}
		childRef = ChildTransport{
			FirstName:  "Luis",
			LastName:   "Flores",
			Grade:      "3A",
			NationalId: "9912345",
			BirthDate:  "2017-03-15",
			Status:     store.CHILD_STATUS_ACTIVE,
			GuardianId: "guardian-1",
		}
	})

	Context("AddChild", func() {

		JustBeforeEach(func() {
			returnedChild, returnedError = childService.AddChild(ctx, childRef)
		})

		Context("with a valid request", func() {
			BeforeEach(func() {
				concreteStore.On("AddChild", mock.Anything, mock.Anything).Return(store.Child{ChildId: "child-1", FirstName: "Luis"}, nil)
				concreteStore.On("SetGuardianOf", mock.Anything, store.GuardianOf{GuardianId: "guardian-1", ChildId: "child-1"}).Return(nil)
			})

			assertNoError()

			It("should create the child and link the initial guardian", func() {
				Expect(returnedChild.ChildId).To(Equal("child-1"))
				concreteStore.AssertCalled(GinkgoT(), "SetGuardianOf", mock.Anything, store.GuardianOf{GuardianId: "guardian-1", ChildId: "child-1"})
			})

			It("should parse the birth date", func() {
				stored := concreteStore.Calls[0].Arguments.Get(1).(store.Child)
				Expect(stored.BirthDate).To(Equal(time.Date(2017, 3, 15, 0, 0, 0, 0, time.UTC)))
			})
		})

		Context("with no first name", func() {
			BeforeEach(func() {
				childRef.FirstName = ""
			})
			assertErrorWithCause(ErrMissingName)
		})

		Context("with no initial guardian", func() {
			BeforeEach(func() {
				childRef.GuardianId = ""
			})
			assertErrorWithCause(ErrNoGuardian)
		})

		Context("with an invalid status", func() {
			BeforeEach(func() {
				childRef.Status = "graduated"
			})
			assertErrorWithCause(ErrInvalidStatus)
		})

		Context("when linking the guardian fails", func() {
			BeforeEach(func() {
				concreteStore.On("AddChild", mock.Anything, mock.Anything).Return(store.Child{ChildId: "child-1"}, nil)
				concreteStore.On("SetGuardianOf", mock.Anything, mock.Anything).Return(store.ErrGuardianNotFound)
			})
			assertErrorWithCause(ErrSetGuardian)
		})
	})

	Context("GetChild", func() {

		JustBeforeEach(func() {
			returnedChild, returnedGuardians, returnedError = childService.GetChild(ctx, ChildTransport{Id: "child-1"})
		})

		Context("when the child exists", func() {
			BeforeEach(func() {
				concreteStore.On("GetChild", mock.Anything, "child-1").Return(store.Child{ChildId: "child-1", FirstName: "Luis"}, nil)
				concreteStore.On("ListGuardiansOfChild", mock.Anything, "child-1").Return([]store.Guardian{
					{GuardianId: "guardian-1", FirstName: "Maria"},
				}, nil)
			})

			assertNoError()

			It("should return the child with its guardians", func() {
				Expect(returnedChild.FirstName).To(Equal("Luis"))
				Expect(returnedGuardians).To(HaveLen(1))
				Expect(returnedGuardians[0].GuardianId).To(Equal("guardian-1"))
			})
		})

		Context("when the child does not exist", func() {
			BeforeEach(func() {
				concreteStore.On("GetChild", mock.Anything, "child-1").Return(store.Child{}, store.ErrChildNotFound)
			})
			assertErrorWithCause(store.ErrChildNotFound)
		})
	})

	Context("UpdateChild", func() {

		JustBeforeEach(func() {
			childRef.Id = "child-1"
			returnedChild, returnedError = childService.UpdateChild(ctx, childRef)
		})

		Context("with a valid request", func() {
			BeforeEach(func() {
				concreteStore.On("UpdateChild", mock.Anything, mock.Anything).Return(store.Child{ChildId: "child-1", Grade: "4A"}, nil)
			})

			assertNoError()

			It("should return the updated child", func() {
				Expect(returnedChild.Grade).To(Equal("4A"))
			})
		})

		Context("with an invalid status", func() {
			BeforeEach(func() {
				childRef.Status = "graduated"
			})
			assertErrorWithCause(ErrInvalidStatus)
		})
	})

	Context("UpdateChild without an id", func() {
		It("should return an error", func() {
			_, err := childService.UpdateChild(ctx, ChildTransport{})
			Expect(errors.Cause(err)).To(Equal(ErrEmptyChild))
		})
	})

	Context("DeleteChild", func() {

		Context("when the child does not exist", func() {
			It("should return an error", func() {
				concreteStore.On("DeleteChild", mock.Anything, "child-1").Return(store.ErrChildNotFound)
				err := childService.DeleteChild(ctx, ChildTransport{Id: "child-1"})
				Expect(errors.Cause(err)).To(Equal(store.ErrChildNotFound))
			})
		})
	})

	Context("LinkGuardian", func() {

		JustBeforeEach(func() {
			returnedError = childService.LinkGuardian(ctx, "child-1", "guardian-2")
		})

		Context("when both sides exist", func() {
			BeforeEach(func() {
				concreteStore.On("GetChild", mock.Anything, "child-1").Return(store.Child{ChildId: "child-1"}, nil)
				concreteStore.On("GetGuardian", mock.Anything, "guardian-2").Return(store.Guardian{GuardianId: "guardian-2"}, nil)
				concreteStore.On("SetGuardianOf", mock.Anything, store.GuardianOf{GuardianId: "guardian-2", ChildId: "child-1"}).Return(nil)
			})
			assertNoError()
		})

		Context("when the guardian does not exist", func() {
			BeforeEach(func() {
				concreteStore.On("GetChild", mock.Anything, "child-1").Return(store.Child{ChildId: "child-1"}, nil)
				concreteStore.On("GetGuardian", mock.Anything, "guardian-2").Return(store.Guardian{}, store.ErrGuardianNotFound)
			})
			assertErrorWithCause(store.ErrGuardianNotFound)
		})

		Context("when the child already has the maximum number of guardians", func() {
			BeforeEach(func() {
				concreteStore.On("GetChild", mock.Anything, "child-1").Return(store.Child{ChildId: "child-1"}, nil)
				concreteStore.On("GetGuardian", mock.Anything, "guardian-2").Return(store.Guardian{GuardianId: "guardian-2"}, nil)
				concreteStore.On("SetGuardianOf", mock.Anything, mock.Anything).Return(store.ErrGuardianLimit)
			})
			assertErrorWithCause(ErrSetGuardian)
		})
	})

	Context("UnlinkGuardian", func() {

		Context("when the link does not exist", func() {
			It("should return an error", func() {
				concreteStore.On("RemoveGuardianOf", mock.Anything, mock.Anything).Return(store.ErrGuardianNotLinked)
				err := childService.UnlinkGuardian(ctx, "child-1", "guardian-2")
				Expect(errors.Cause(err)).To(Equal(store.ErrGuardianNotLinked))
			})
		})
	})
})
