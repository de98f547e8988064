package common

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCommon(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Common Suite")
}

var _ = Describe("Classify", func() {
	It("should return nil for nil", func() {
		Expect(Classify(nil)).To(BeNil())
	})

	It("should map decode failures to client input", func() {
		err := fmt.Errorf("normalize %q: %w", "a.jpg", ErrImageDecode)
		Expect(Classify(err).Kind).To(Equal(KindClientInput))
	})

	It("should map unsupported files to client input", func() {
		Expect(Classify(ErrUnsupportedFile).Kind).To(Equal(KindClientInput))
	})

	It("should map provider failures to provider unavailable", func() {
		err := fmt.Errorf("status 502: %w", ErrProviderUnavailable)
		Expect(Classify(err).Kind).To(Equal(KindProviderUnavailable))
	})

	It("should map engine, parse and validation failures to internal", func() {
		for _, sentinel := range []error{ErrOCREngine, ErrStructuringParse, ErrSchemaValidation} {
			Expect(Classify(fmt.Errorf("stage: %w", sentinel)).Kind).To(Equal(KindInternal))
		}
	})

	It("should default unknown failures to internal", func() {
		Expect(Classify(errors.New("surprise")).Kind).To(Equal(KindInternal))
	})

	It("should pass an already classified error through unchanged", func() {
		orig := WrapError(KindClientInput, "bad upload", ErrImageDecode)
		wrapped := fmt.Errorf("pipeline: %w", orig)
		Expect(Classify(wrapped)).To(BeIdenticalTo(orig))
	})

	It("should keep the cause chain intact", func() {
		ce := Classify(fmt.Errorf("decode: %w", ErrImageDecode))
		Expect(errors.Is(ce, ErrImageDecode)).To(BeTrue())
	})
})

var _ = Describe("Error", func() {
	It("should include kind and message in the text", func() {
		e := NewError(KindInternal, "boom")
		Expect(e.Error()).To(Equal("internal: boom"))
	})

	It("should append the wrapped cause", func() {
		e := WrapError(KindInternal, "boom", errors.New("root"))
		Expect(e.Error()).To(Equal("internal: boom: root"))
	})
})
