package main

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ironsheep/focus-narrator/internal/element"
	"github.com/ironsheep/focus-narrator/internal/imaging"
	"github.com/ironsheep/focus-narrator/internal/logging"
	"github.com/ironsheep/focus-narrator/internal/ocr"
	"github.com/ironsheep/focus-narrator/internal/perception"
)

// NewDetectCmd creates the detect command.
func NewDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run visual detection on a screenshot and print the elements",
		Long: `Detect runs the visual perception pipeline once over an image file and
prints the detected elements as JSON.

Examples:
  focus-narrator detect --image screen.png
  focus-narrator detect --image screen.png --region 0,0,800,600 --ocr=false`,
		Args: cobra.NoArgs,
		RunE: runDetectCmd,
	}
	cmd.Flags().StringP("image", "i", "", "Image file to analyze (required)")
	cmd.Flags().StringP("region", "r", "", "Region as x1,y1,x2,y2 (default: whole image)")
	cmd.Flags().Bool("ocr", true, "Recognize element text with Tesseract")
	cmd.Flags().String("lang", "eng", "Tesseract language")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func runDetectCmd(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger, err := logging.NewLogger("detect", verbose)
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer logger.Sync() //nolint:errcheck

	path, _ := cmd.Flags().GetString("image")
	capturer := imaging.NewFileCapturer(path, imaging.NewFrameCache())
	screen, err := capturer.Screen()
	if err != nil {
		return err
	}

	region := element.R(screen.Bounds().Min.X, screen.Bounds().Min.Y, screen.Bounds().Max.X, screen.Bounds().Max.Y)
	if arg, _ := cmd.Flags().GetString("region"); arg != "" {
		if region, err = parseRegion(arg); err != nil {
			return err
		}
	}

	deps := perception.VisualDeps{Capturer: capturer}
	if useOCR, _ := cmd.Flags().GetBool("ocr"); useOCR {
		lang, _ := cmd.Flags().GetString("lang")
		eng, err := ocr.NewTesseract(ocr.TesseractConfig{Language: lang})
		if err != nil {
			logger.Warnw("OCR unavailable, printing elements without text", "error", err)
		} else {
			defer eng.Close()
			deps.OCR = ocr.NewBatchRunner(eng, ocr.DefaultBatchConfig(), logger.Named("ocr"))
		}
	}

	src, err := perception.NewVisualSource(deps, perception.DefaultVisualConfig(), logger.Named("vision"))
	if err != nil {
		return err
	}
	els, err := src.Detect(cmd.Context(), region)
	if err != nil {
		return err
	}
	if els == nil {
		els = []*element.Element{}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(els)
}

// parseRegion parses "x1,y1,x2,y2".
func parseRegion(s string) (element.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return element.Rect{}, errors.Errorf("region %q: want x1,y1,x2,y2", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return element.Rect{}, errors.Wrapf(err, "region %q", s)
		}
		v[i] = n
	}
	r := element.R(v[0], v[1], v[2], v[3])
	if !r.Valid() {
		return element.Rect{}, errors.Wrapf(element.ErrInvalidBounds, "region %q", s)
	}
	return r, nil
}
