package faceapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/ClearGateLLC/kidpass/faceapi"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var _ = Describe("DefaultClient", func() {

	var (
		server       *httptest.Server
		client       *DefaultClient
		requestBody  map[string]string
		responseCode int
		responseBody string
	)

	BeforeEach(func() {
		responseCode = http.StatusOK
		responseBody = `{
			"faces_detected": 1,
			"embedding": [0.25, -0.5, 0.75],
			"confidence": 0.97,
			"sharpness": 180.5,
			"size": {"w": 150, "h": 190}
		}`
		requestBody = nil
	})

	JustBeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/api/embed"))
			Expect(json.NewDecoder(r.Body).Decode(&requestBody)).To(Succeed())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(responseCode)
			w.Write([]byte(responseBody))
		}))
		client = NewDefaultClient(server.URL, 2*time.Second)
	})

	AfterEach(func() {
		server.Close()
	})

	It("should post the image and decode the analysis", func() {
		result, err := client.Analyze(context.Background(), "frame-base64")

		Expect(err).To(BeNil())
		Expect(requestBody).To(HaveKeyWithValue("image_base64", "frame-base64"))
		Expect(result.FacesDetected).To(Equal(1))
		Expect(result.Embedding).To(Equal([]float64{0.25, -0.5, 0.75}))
		Expect(result.Confidence).To(Equal(0.97))
		Expect(result.Sharpness).To(Equal(180.5))
		Expect(result.Size).To(Equal(FaceSize{W: 150, H: 190}))
	})

	Context("when the service responds with an error status", func() {
		BeforeEach(func() {
			responseCode = http.StatusInternalServerError
			responseBody = `{"error": "model not loaded"}`
		})

		It("should report the unexpected status", func() {
			_, err := client.Analyze(context.Background(), "frame-base64")
			Expect(errors.Cause(err)).To(Equal(ErrUnexpectedStatus))
		})
	})

	Context("when the service is unreachable", func() {
		It("should report it as such", func() {
			server.Close()
			_, err := client.Analyze(context.Background(), "frame-base64")
			Expect(errors.Cause(err)).To(Equal(ErrUnreachable))
		})
	})
})
