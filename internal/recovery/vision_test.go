package recovery

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/gesthor/ocr-service/internal/common"
)

type captureExtractor struct {
	raw   []byte
	err   error
	jpeg  []byte
	calls int
}

func (e *captureExtractor) ExtractFromText(_ context.Context, _ string) ([]byte, error) {
	return nil, errors.New("unexpected text call")
}

func (e *captureExtractor) ExtractFromImage(_ context.Context, jpeg []byte) ([]byte, error) {
	e.calls++
	e.jpeg = jpeg
	return e.raw, e.err
}

func tinyPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(1, 1, color.RGBA{A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

var _ = Describe("RemoteVision", func() {
	var (
		extractor *captureExtractor
		strategy  *RemoteVision
	)

	BeforeEach(func() {
		extractor = &captureExtractor{raw: []byte(`{"establishment":"Bar Pepe"}`)}
		strategy = NewRemoteVision(extractor, nil)
	})

	When("the photo decodes", func() {
		It("should send a JPEG re-encode and return the fused ticket", func() {
			out, err := strategy.Recover(context.Background(), Artifact{
				Filename: "receipt.png",
				Data:     tinyPNG(),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.RawTicket).To(Equal([]byte(`{"establishment":"Bar Pepe"}`)))
			Expect(extractor.calls).To(Equal(1))
			Expect(extractor.jpeg[:2]).To(Equal([]byte{0xff, 0xd8}))
		})
	})

	When("the upload is not a decodable image", func() {
		It("should fail before any provider call", func() {
			_, err := strategy.Recover(context.Background(), Artifact{
				Filename: "receipt.jpg",
				Data:     []byte("not an image"),
			})
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, common.ErrImageDecode)).To(BeTrue())
			Expect(extractor.calls).To(BeZero())
		})
	})
})
