package ocr

import (
	"bytes"
	"image"
	"image/png"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/pkg/errors"

	"github.com/ironsheep/focus-narrator/internal/element"
)

// TesseractConfig configures a TesseractEngine.
type TesseractConfig struct {
	// Language is the Tesseract language code, "eng" by default.
	Language string

	// TessdataPrefix points at the tessdata directory. Empty uses the
	// system default.
	TessdataPrefix string

	// Workers is the number of Tesseract clients kept in the pool and thus
	// the number of concurrent recognitions. Defaults to 2.
	Workers int
}

// TesseractEngine is an Engine backed by a pool of gosseract clients.
//
// A gosseract client holds native Tesseract state and must not be shared
// between goroutines, so each ReadText call borrows one client from the pool.
type TesseractEngine struct {
	mu      sync.RWMutex
	closed  bool
	cfg     TesseractConfig
	clients chan *gosseract.Client
	version string
}

// NewTesseract initializes the client pool. It fails with ErrUnavailable
// when Tesseract cannot load the requested language.
func NewTesseract(cfg TesseractConfig) (*TesseractEngine, error) {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}

	e := &TesseractEngine{cfg: cfg, clients: make(chan *gosseract.Client, cfg.Workers)}
	for i := 0; i < cfg.Workers; i++ {
		client := gosseract.NewClient()
		if cfg.TessdataPrefix != "" {
			if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
				client.Close()
				e.Close()
				return nil, errors.Wrapf(ErrUnavailable, "failed to set tessdata prefix: %v", err)
			}
		}
		if err := client.SetLanguage(cfg.Language); err != nil {
			client.Close()
			e.Close()
			return nil, errors.Wrapf(ErrUnavailable, "failed to set language %q: %v", cfg.Language, err)
		}
		// Tesseract loads language data lazily; recognize a blank probe so a
		// missing language fails here instead of on the first region.
		if err := warmUp(client); err != nil {
			client.Close()
			e.Close()
			return nil, errors.Wrapf(ErrUnavailable, "failed to initialize language %q: %v", cfg.Language, err)
		}
		if i == 0 {
			e.version = client.Version()
		}
		e.clients <- client
	}
	return e, nil
}

func warmUp(client *gosseract.Client) error {
	probe := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range probe.Pix {
		probe.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, probe); err != nil {
		return err
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return err
	}
	_, err := client.Text()
	return err
}

// Version returns the Tesseract library version.
func (e *TesseractEngine) Version() string {
	return e.version
}

// ReadText recognizes words in img.
//
// Confidence values from Tesseract (0-100) are scaled to [0, 1]. Word
// bounds are translated into img's coordinate frame.
func (e *TesseractEngine) ReadText(img image.Image, opts Options) ([]Word, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(err, "failed to encode image")
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, errors.Wrap(ErrUnavailable, "engine closed")
	}
	client := <-e.clients
	defer func() { e.clients <- client }()

	if err := client.SetWhitelist(opts.AllowList); err != nil {
		return nil, errors.Wrap(err, "failed to set allow-list")
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, errors.Wrap(err, "failed to set image")
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get word boxes")
	}

	origin := img.Bounds().Min
	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		conf := box.Confidence / 100.0
		if box.Word == "" || conf < opts.MinConfidence {
			continue
		}
		words = append(words, Word{
			Bounds: element.R(
				box.Box.Min.X+origin.X, box.Box.Min.Y+origin.Y,
				box.Box.Max.X+origin.X, box.Box.Max.Y+origin.Y,
			),
			Text:       box.Word,
			Confidence: conf,
		})
	}
	return words, nil
}

// Close releases every pooled client. Calls to ReadText after Close fail
// with ErrUnavailable.
func (e *TesseractEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.clients)
	var firstErr error
	for client := range e.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "failed to close tesseract client")
		}
	}
	return firstErr
}
