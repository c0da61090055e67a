package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/teslashibe/go-pepper/internal/config"
	"github.com/teslashibe/go-pepper/internal/log"
	"github.com/teslashibe/go-pepper/pkg/capture"
	"github.com/teslashibe/go-pepper/pkg/conversation"
	"github.com/teslashibe/go-pepper/pkg/inference"
	"github.com/teslashibe/go-pepper/pkg/movement"
	"github.com/teslashibe/go-pepper/pkg/orchestrator"
	"github.com/teslashibe/go-pepper/pkg/robot"
	"github.com/teslashibe/go-pepper/pkg/search"
	"github.com/teslashibe/go-pepper/pkg/speech"
	"github.com/teslashibe/go-pepper/pkg/stt"
	"github.com/teslashibe/go-pepper/pkg/tools"
	"github.com/teslashibe/go-pepper/pkg/tts"
	"github.com/teslashibe/go-pepper/pkg/web"
)

func main() {
	robotIP := flag.String("robot", "", "Pepper IP address (or set PEPPER_IP env)")
	consolePort := flag.String("port", "8080", "Operator console port")
	micDevice := flag.String("mic", "default", "ALSA capture device")
	noMic := flag.Bool("no-mic", false, "Disable voice capture")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log.Init(*logLevel)

	ip := *robotIP
	if ip == "" {
		ip = config.PepperIPRequired()
	}
	groqKey := config.GroqAPIKey()

	fmt.Println("🤖 Pepper Controller")
	fmt.Printf("   Robot:   %s:%s\n", ip, config.DefaultPepperPort)
	fmt.Printf("   Console: http://localhost:%s\n", *consolePort)
	fmt.Println()
	fmt.Println("Keys: w/s/a/d/q/e drive · 1-4,8,9,0 gestures · 5/6/7 eyes · r record · space pause · x quit")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n👋 Shutting down...")
		cancel()
	}()

	ctrl := robot.NewHTTPController(ip)
	if status, err := ctrl.GetBridgeStatus(); err != nil {
		log.Warn("robot bridge unreachable, continuing anyway", "error", err)
	} else {
		log.Info("robot bridge online", "status", status)
	}

	// Speech synthesis chain: Groq first, ElevenLabs if we have a
	// key, Edge TTS as the free tier of last resort.
	var providers []tts.Provider
	if groq, err := tts.NewGroq(tts.WithAPIKey(groqKey)); err == nil {
		providers = append(providers, groq)
	}
	if elKey := config.ElevenLabsAPIKey(); elKey != "" {
		if el, err := tts.NewElevenLabs(tts.WithAPIKey(elKey)); err == nil {
			providers = append(providers, el)
		}
	}
	if edge, err := tts.NewEdge(); err == nil {
		providers = append(providers, edge)
	}
	chain, err := tts.NewChain(providers...)
	if err != nil {
		log.Error("no speech providers available", "error", err)
		os.Exit(1)
	}
	defer chain.Close()

	speaker := speech.NewCoordinator(speech.NewLock(), chain, ctrl)

	provider, err := inference.NewClient(inference.WithAPIKey(groqKey))
	if err != nil {
		log.Error("inference client failed", "error", err)
		os.Exit(1)
	}
	defer provider.Close()

	searcher := search.NewClient()
	registry := tools.NewDefaultRegistry(ctrl, searcher)
	dispatcher := tools.NewDispatcher(registry)
	engine := conversation.NewEngine(provider, dispatcher, conversation.NewHistory())

	var recorder *capture.Recorder
	if !*noMic {
		whisper, err := stt.NewWhisper(groqKey)
		if err != nil {
			log.Error("transcriber setup failed", "error", err)
			os.Exit(1)
		}
		mic := capture.NewMicSource(*micDevice, capture.DefaultSampleRate)
		recorder = capture.NewRecorder(mic, whisper)
	}

	drive := movement.NewState()
	watchdog := movement.NewWatchdog(drive, ctrl)
	keys := orchestrator.NewKeyRouter(drive, ctrl)
	orch := orchestrator.New(engine, speaker, recorder, ctrl, keys,
		orchestrator.WithWorkers(config.Int("PEPPER_WORKERS", orchestrator.DefaultWorkers)),
	)
	server := web.NewServer(*consolePort, orch, watchdog, speaker, ctrl)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watchdog.Run(gctx) })
	g.Go(func() error { return orch.Run(gctx) })
	g.Go(func() error { return server.Run(gctx) })
	g.Go(func() error { return keyLoop(gctx, orch, cancel) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("exited with error", "error", err)
		os.Exit(1)
	}
	fmt.Println("👋 Goodbye!")
}

// keyLoop reads single keys from the terminal in raw mode and feeds
// them to the orchestrator. 'x' and Ctrl+C end the program.
func keyLoop(ctx context.Context, orch *orchestrator.Orchestrator, cancel context.CancelFunc) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		log.Info("stdin is not a terminal, keyboard control disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw terminal: %w", err)
	}
	defer term.Restore(fd, oldState)

	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return err
		}

		key := rune(buf[0])
		if key == 0x03 { // Ctrl+C in raw mode
			cancel()
			return nil
		}
		if err := orch.HandleKey(ctx, key); err != nil {
			if errors.Is(err, orchestrator.ErrQuit) {
				cancel()
				return nil
			}
			return err
		}
	}
}
