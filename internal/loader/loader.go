// Package loader fetches and decodes assets off the render thread. Every
// callback is posted to a mainthread.Queue, so callers only ever see results
// on the thread that drains it.
package loader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"GopherAR/internal/logger"
	"GopherAR/internal/mainthread"
	"GopherAR/internal/scene"

	"github.com/alitto/pond/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported model format")
	ErrNoScene           = errors.New("model has no scene")
)

type Options struct {
	Workers  int
	CacheDir string
	// ModelColor shades models whose files carry no usable color.
	ModelColor [3]float32
	Client     *http.Client
}

type Loader struct {
	pool       pond.Pool
	queue      *mainthread.Queue
	client     *http.Client
	cacheDir   string
	modelColor [3]float32
	tracer     trace.Tracer
	pending    sync.WaitGroup

	// ctx is cancelled by Close so in-flight downloads stop.
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func New(queue *mainthread.Queue, opts Options) *Loader {
	if opts.Workers <= 0 {
		opts.Workers = 2
	}
	if opts.CacheDir == "" {
		opts.CacheDir = os.TempDir()
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 60 * time.Second}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		ctx:        ctx,
		cancel:     cancel,
		pool:       pond.NewPool(opts.Workers),
		queue:      queue,
		client:     opts.Client,
		cacheDir:   opts.CacheDir,
		modelColor: opts.ModelColor,
		tracer:     otel.Tracer("gopherar/loader"),
	}
}

// LoadModel fetches and decodes path (local file or http(s) URL) in the
// background. onProgress receives fractions in [0,1]; exactly one of onLoad
// or onError runs afterwards. Any callback may be nil. Nothing is retried.
func (l *Loader) LoadModel(path string, onLoad func(*scene.Node), onProgress func(float64), onError func(error)) {
	l.submit(path, "model", func(ctx context.Context) error {
		ext := assetExt(path)
		if ext != ".glb" && ext != ".gltf" && ext != ".obj" {
			return fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
		}

		progress := func(float64) {}
		if onProgress != nil {
			progress = mainthread.Coalesce(l.queue, onProgress)
		}
		local, err := l.fetch(ctx, path, progress)
		if err != nil {
			return err
		}

		var node *scene.Node
		if ext == ".obj" {
			node, err = decodeOBJ(local, l.modelColor)
		} else {
			node, err = decodeGLTF(local, l.modelColor)
		}
		if err != nil {
			return err
		}

		logger.Log.Info("Model loaded", zap.String("path", path), zap.String("root", node.Name))
		if onLoad != nil {
			l.queue.Post(func() { onLoad(node) })
		}
		return nil
	}, onError)
}

// LoadFont fetches a TrueType/OpenType font. An empty path yields the
// embedded Go Regular font.
func (l *Loader) LoadFont(path string, onLoad func(*opentype.Font), onError func(error)) {
	l.submit(path, "font", func(ctx context.Context) error {
		var data []byte
		if path == "" {
			data = goregular.TTF
		} else {
			local, err := l.fetch(ctx, path, func(float64) {})
			if err != nil {
				return err
			}
			if data, err = os.ReadFile(local); err != nil {
				return err
			}
		}

		f, err := opentype.Parse(data)
		if err != nil {
			return fmt.Errorf("parse font %s: %w", path, err)
		}
		if onLoad != nil {
			l.queue.Post(func() { onLoad(f) })
		}
		return nil
	}, onError)
}

func (l *Loader) submit(path, kind string, work func(context.Context) error, onError func(error)) {
	l.pending.Add(1)
	l.pool.Submit(func() {
		defer l.pending.Done()

		ctx, span := l.tracer.Start(l.ctx, "asset.load",
			trace.WithAttributes(
				attribute.String("asset.kind", kind),
				attribute.String("asset.path", path),
			))
		defer span.End()

		if err := work(ctx); err != nil {
			if l.ctx.Err() != nil {
				logger.Log.Debug("Asset load cancelled", zap.String("kind", kind), zap.String("path", path))
				return
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Log.Error("Asset load failed",
				zap.String("kind", kind),
				zap.String("path", path),
				zap.Error(err))
			if onError != nil {
				l.queue.Post(func() { onError(err) })
			}
		}
	})
}

// Wait blocks until every submitted load has posted its callbacks.
func (l *Loader) Wait() {
	l.pending.Wait()
}

// Close cancels in-flight downloads and stops the worker pool. Callbacks
// already posted stay on the queue.
func (l *Loader) Close() {
	l.closeOnce.Do(func() {
		l.cancel()
		l.pool.StopAndWait()
	})
}
