package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	mirror "github.com/Aditya-9215/ai-mirror-stage-2"
	"github.com/Aditya-9215/ai-mirror-stage-2/internal/config"
	"github.com/Aditya-9215/ai-mirror-stage-2/internal/diag"
	"github.com/Aditya-9215/ai-mirror-stage-2/internal/utils"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/client"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/detection"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/keypoints"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/llamacpp"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/measure"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/ollama"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/processing"
	"github.com/Aditya-9215/ai-mirror-stage-2/pkg/types"
)

// input is one frame and, when it came from a photo, the photo fitted to
// the frame size.
type input struct {
	name  string
	frame keypoints.Frame
	photo *image.NRGBA
}

type capture struct {
	Frame  int            `json:"frame"`
	Source string         `json:"source"`
	Record measure.Record `json:"record"`
}

type report struct {
	Session  string    `json:"session"`
	Frames   int       `json:"frames"`
	Accepted int       `json:"accepted"`
	Captures []capture `json:"captures"`
}

func main() {
	var frames, in, garmentPath, category, mode string
	var backend, url, model, configPath, tracePath string
	var height float64
	var verbose, checkModel bool
	opts := types.ProcessingOptions{}

	flag.StringVar(&frames, "frames", "", "keypoint frames file (JSON array or JSON Lines)")
	flag.StringVar(&in, "in", "", "input photo path, URL or directory of numbered frames")
	flag.StringVar(&garmentPath, "garment", "", "garment texture for try-on (jpg/png/webp)")
	flag.StringVar(&category, "category", "", "garment category: upper|lower|dress")
	flag.StringVar(&mode, "mode", "all", "what to produce: measure|tryon|all")
	flag.Float64Var(&height, "height", 0, "user height in cm for try-on (0 = configured reference)")

	flag.StringVar(&backend, "backend", "", "pose backend: ollama or llamacpp")
	flag.StringVar(&url, "url", "", "pose server URL")
	flag.StringVar(&model, "model", "", "pose model name")
	flag.BoolVar(&checkModel, "check-model", false, "ask the pose model to describe the -in image and exit")

	flag.StringVar(&opts.OutputDir, "out", "", "output directory")
	flag.StringVar(&opts.Extension, "ext", "", "render format: png|jpg|webp")
	flag.IntVar(&opts.Quality, "quality", 0, "JPEG/WebP render quality (1-100)")
	flag.BoolVar(&opts.Lossless, "lossless", false, "WebP lossless mode")
	flag.BoolVar(&opts.DebugOverlay, "debug", false, "write skeleton and mesh overlays")

	flag.StringVar(&configPath, "config", "", "config file (json or yaml)")
	flag.StringVar(&tracePath, "trace", "", "write a stability variance plot to this png and the samples next to it as json")
	flag.BoolVar(&verbose, "v", false, "verbose pipeline logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if frames == "" && in == "" {
		fatal(logger, fmt.Sprintf("usage: %s -frames frames.jsonl | -in photo.jpg|URL|dir [-mode measure|tryon|all] [-garment shirt.png] [-category upper] [-out outdir]", filepath.Base(os.Args[0])), nil)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		fatal(logger, "failed to load config", err)
	}
	applyFlags(cfg, backend, url, model, category, &opts)

	m, err := mirror.NewWithConfig(cfg)
	if err != nil {
		fatal(logger, "invalid configuration", err)
	}
	if verbose {
		mirror.SetLogger(logger)
	}
	if err := utils.EnsureDir(opts.OutputDir); err != nil {
		fatal(logger, "failed to create output directory", err)
	}

	processor := processing.NewProcessor()
	ctx := context.Background()

	if checkModel {
		if in == "" {
			fatal(logger, "-check-model needs -in", nil)
		}
		if err := checkVision(ctx, logger, cfg, processor, in); err != nil {
			fatal(logger, "model check failed", err)
		}
		return
	}

	var inputs []input
	if frames != "" {
		inputs, err = readFrames(frames)
	} else {
		inputs, err = detectFrames(ctx, logger, cfg, processor, in)
	}
	if err != nil {
		fatal(logger, "failed to read frames", err)
	}
	logger.Info("frames loaded", "count", len(inputs))

	if mode == "measure" || mode == "all" {
		if err := measureFrames(logger, m, inputs, opts.OutputDir, tracePath); err != nil {
			fatal(logger, "measurement failed", err)
		}
	}

	if mode == "tryon" || mode == "all" {
		if garmentPath == "" {
			if mode == "tryon" {
				fatal(logger, "try-on needs -garment", nil)
			}
			return
		}
		if err := tryOnFrames(logger, m, processor, inputs, garmentPath, height, opts); err != nil {
			fatal(logger, "try-on failed", err)
		}
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	if err != nil {
		logger.Error(msg, "error", err)
	} else {
		logger.Error(msg)
	}
	os.Exit(1)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			return config.Default(), nil
		}
	}
	return config.LoadFromFile(path)
}

// applyFlags lets explicitly set flags override the loaded configuration.
func applyFlags(cfg *config.Config, backend, url, model, category string, opts *types.ProcessingOptions) {
	if backend != "" {
		cfg.Pose.Backend = backend
	}
	if url != "" {
		cfg.Pose.URL = url
	}
	if model != "" {
		cfg.Pose.Model = model
	}
	if category != "" {
		cfg.Garment.Category = category
	}
	if opts.OutputDir != "" {
		cfg.Output.OutputDir = opts.OutputDir
	}
	if opts.Extension != "" {
		cfg.Output.DefaultFormat = strings.ToLower(opts.Extension)
	}
	if opts.Quality != 0 {
		cfg.Output.Quality = opts.Quality
	}
	opts.OutputDir = cfg.Output.OutputDir
	opts.Extension = cfg.Output.DefaultFormat
	opts.Quality = cfg.Output.Quality
}

func readFrames(path string) ([]input, error) {
	if !utils.IsKeypointFile(path) {
		return nil, fmt.Errorf("unsupported keypoint file: %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	decoded, err := keypoints.DecodeFrames(f)
	if err != nil {
		return nil, err
	}
	inputs := make([]input, len(decoded))
	for i, fr := range decoded {
		inputs[i] = input{name: fmt.Sprintf("frame_%04d", i+1), frame: fr}
	}
	return inputs, nil
}

func newVisionClient(cfg *config.Config) (client.VisionClient, error) {
	switch cfg.Pose.Backend {
	case "ollama":
		c, err := ollama.NewClient(cfg.Pose.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		c.SetTimeout(time.Duration(cfg.Pose.TimeoutSeconds) * time.Second)
		return c, nil
	case "llamacpp":
		c, err := llamacpp.NewClient(cfg.Pose.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", cfg.Pose.Backend)
	}
}

// checkVision asks the model to describe the first input image, to confirm it
// actually receives images before running pose detection.
func checkVision(ctx context.Context, logger *slog.Logger, cfg *config.Config, processor *processing.Processor, in string) error {
	visionClient, err := newVisionClient(cfg)
	if err != nil {
		return err
	}

	src := in
	if utils.DirExists(in) {
		files, err := utils.ListImageFiles(in)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no images in %s", in)
		}
		src = files[0]
	}

	img, err := processor.LoadImageSmart(src)
	if err != nil {
		return err
	}
	imgB64, err := processor.PrepareImageForModel(img, "jpg", 1024, 85)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Pose.TimeoutSeconds)*time.Second)
	defer cancel()
	reply, err := detection.NewDetector(visionClient).TestVision(reqCtx, cfg.Pose.Model, imgB64)
	if err != nil {
		return err
	}
	logger.Info("model reply", "backend", cfg.Pose.Backend, "model", cfg.Pose.Model, "source", src, "reply", reply)
	return nil
}

// detectFrames runs pose detection on a photo, a URL or every image in a
// directory. Photos are fitted to the configured frame size first so that
// keypoints and the later try-on share one coordinate space.
func detectFrames(ctx context.Context, logger *slog.Logger, cfg *config.Config, processor *processing.Processor, in string) ([]input, error) {
	visionClient, err := newVisionClient(cfg)
	if err != nil {
		return nil, err
	}
	detector := detection.NewDetector(visionClient)

	sources := []string{in}
	if utils.DirExists(in) {
		if sources, err = utils.ListImageFiles(in); err != nil {
			return nil, err
		}
	}

	w, h := cfg.Frame.Width, cfg.Frame.Height
	timeout := time.Duration(cfg.Pose.TimeoutSeconds) * time.Second
	var inputs []input
	for _, src := range sources {
		img, err := processor.LoadImageSmart(src)
		if err != nil {
			return nil, err
		}
		photo, err := processor.FitToFrame(img, w, h)
		if err != nil {
			return nil, err
		}
		imgB64, err := processor.PrepareImageForModel(photo, "jpg", 0, 85)
		if err != nil {
			return nil, err
		}

		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		frame, err := detector.DetectPose(reqCtx, cfg.Pose.Model, imgB64, w, h)
		cancel()
		if err != nil {
			logger.Warn("pose detection failed", "source", src, "error", err)
			continue
		}
		logger.Debug("pose detected", "source", src, "keypoints", frame.Len())
		inputs = append(inputs, input{name: filepath.Base(src), frame: frame, photo: photo})
	}
	if len(inputs) == 0 {
		return nil, detection.ErrNoPerson
	}
	return inputs, nil
}

func measureFrames(logger *slog.Logger, m *mirror.Mirror, inputs []input, outDir, tracePath string) error {
	s, err := m.NewSession()
	if err != nil {
		return err
	}
	s.Start()

	trace := diag.NewTrace(m.Config().Stability.VarianceThreshold)
	rep := report{Session: s.ID(), Frames: len(inputs), Captures: []capture{}}
	for i, in := range inputs {
		if !s.Active() {
			s.Start()
		}
		u := s.Process(in.frame)
		trace.Add(i, u)
		if u.Accepted {
			rep.Accepted++
		} else {
			logger.Debug("frame rejected", "source", in.name, "quality", u.Quality, "hint", u.Quality.Hint())
		}
		if u.Record != nil {
			rep.Captures = append(rep.Captures, capture{Frame: i, Source: in.name, Record: *u.Record})
			logger.Info("measurements captured", "source", in.name,
				"shoulder_cm", u.Record.ShoulderCm, "chest_cm", u.Record.ChestCm,
				"torso_cm", u.Record.TorsoCm, "height_cm", u.Record.FullHeightCm)
		}
	}

	path := filepath.Join(outDir, "measurements.json")
	if err := utils.WriteJSON(path, rep); err != nil {
		return err
	}
	logger.Info("wrote measurements", "path", path, "captures", len(rep.Captures))

	if tracePath != "" {
		if err := trace.SavePlot(tracePath); err != nil {
			logger.Warn("trace plot not written", "error", err)
		} else {
			logger.Info("wrote trace", "path", tracePath)
		}
		samplesPath := strings.TrimSuffix(tracePath, filepath.Ext(tracePath)) + ".json"
		if err := utils.WriteJSON(samplesPath, trace.Samples()); err != nil {
			logger.Warn("trace samples not written", "error", err)
		} else {
			logger.Info("wrote trace samples", "path", samplesPath, "frames", trace.Len())
		}
	}
	return nil
}

func tryOnFrames(logger *slog.Logger, m *mirror.Mirror, processor *processing.Processor, inputs []input, garmentPath string, heightCm float64, opts types.ProcessingOptions) error {
	tex, err := m.LoadTexture(garmentPath)
	if err != nil {
		return err
	}
	cat, err := m.Config().Category()
	if err != nil {
		return err
	}

	w, h := m.Config().Frame.Width, m.Config().Frame.Height
	for _, in := range inputs {
		var canvas *image.NRGBA
		if in.photo != nil {
			canvas = image.NewNRGBA(in.photo.Bounds())
			draw.Draw(canvas, canvas.Bounds(), in.photo, in.photo.Bounds().Min, draw.Src)
		} else {
			canvas = processor.NewCanvas(w, h, color.White)
		}

		result, mesh, err := m.TryOn(canvas, tex, in.frame, heightCm, cat)
		if err != nil {
			logger.Warn("try-on skipped", "source", in.name, "error", err)
			continue
		}
		if result.Partial() {
			logger.Warn("partial render", "source", in.name, "drawn", result.Drawn, "skipped", result.Skipped)
		}

		outPath := utils.GenerateOutputFilename(in.name, opts.OutputDir, m.Config().Output.Prefix, m.Config().Output.Suffix, opts.Extension)
		if err := processor.SaveImage(canvas, outPath, opts.Extension, opts.Quality, opts.Lossless); err != nil {
			logger.Error("save failed", "path", outPath, "error", err)
			continue
		}
		if info, err := os.Stat(outPath); err == nil {
			logger.Info("wrote render", "path", outPath, "size", utils.FormatFileSize(info.Size()))
		}

		if opts.DebugOverlay {
			sk := in.frame.Resolve()
			g := m.Garment(mesh, cat)
			var base image.Image = canvas
			if in.photo != nil {
				base = in.photo
			}
			dbg := processor.CreateDebugOverlay(base, &sk, mesh, g.Grids)
			dbgPath := utils.GenerateOutputFilename(in.name, opts.OutputDir, "", "_debug", "png")
			if err := processor.SaveImage(dbg, dbgPath, "png", 0, false); err != nil {
				logger.Error("debug save failed", "path", dbgPath, "error", err)
			} else {
				logger.Info("wrote debug overlay", "path", dbgPath)
			}
		}
	}
	return nil
}
