// decodesession-probe feeds an H.264 stream (a raw Annex-B file or a
// progressive MP4 file) through a libav backed decode session and reports
// what comes out.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/decodesession/event"
	"github.com/xaionaro-go/decodesession/extradata"
	"github.com/xaionaro-go/decodesession/logger"
	"github.com/xaionaro-go/decodesession/resource/libav"
	"github.com/xaionaro-go/decodesession/session"
	"github.com/xaionaro-go/decodesession/types"
	"github.com/xaionaro-go/observability"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syntax: %s [flags] <file.h264|file.mp4>\n", os.Args[0])
		pflag.PrintDefaults()
	}

	cfg := defaultConfig()
	loggerLevel := logger.LevelWarning
	pflag.Var(&loggerLevel, "log-level", "Log level")
	netPprofAddr := pflag.String("net-pprof-listen-addr", "", "an address to listen for incoming net/pprof connections")
	configPath := pflag.String("config", "", "path to a YAML config file; flags override it")
	descriptor := pflag.String("descriptor", cfg.Descriptor, "the decoder descriptor, e.g. 'video/avc;codec=avc1.64001f;coded_width=1280;coded_height=720'; MP4 inputs bring their own")
	frameRate := pflag.Float64("frame-rate", cfg.FrameRate, "the rate the access units are fed at")
	seekResetAt := pflag.Int("seek-reset-at", cfg.SeekResetAt, "reset the session as if seeking right before this access unit (negative disables)")
	decodeTimeout := pflag.Duration("decode-timeout", cfg.Session.DecodeTimeout, "how long to wait for a frame per chunk")
	hwDevType := cfg.HardwareDeviceType
	pflag.Var(&hwDevType, "hwaccel", "hardware device type (none, vaapi, cuda, ...)")
	hwDevName := pflag.String("hwaccel-device", "", "hardware device name")
	pflag.Parse()
	if len(pflag.Args()) != 1 {
		pflag.Usage()
		os.Exit(1)
	}

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	ctx, cancelFn := context.WithCancel(ctx)
	defer cancelFn()
	logger.SetDefault(func() logger.Logger {
		return l
	})
	defer logger.Flush(ctx)

	if *configPath != "" {
		if err := readConfigFile(*configPath, &cfg); err != nil {
			l.Fatal(err)
		}
	}
	pflag.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "descriptor":
			cfg.Descriptor = *descriptor
		case "frame-rate":
			cfg.FrameRate = *frameRate
		case "seek-reset-at":
			cfg.SeekResetAt = *seekResetAt
		case "decode-timeout":
			cfg.Session.DecodeTimeout = *decodeTimeout
		case "hwaccel":
			cfg.HardwareDeviceType = hwDevType
		case "hwaccel-device":
			cfg.HardwareDeviceName = types.HardwareDeviceName(*hwDevName)
		}
	})
	if cfg.FrameRate <= 0 {
		l.Fatalf("invalid frame rate: %v", cfg.FrameRate)
	}

	if *netPprofAddr != "" {
		observability.Go(ctx, func(ctx context.Context) { l.Error(http.ListenAndServe(*netPprofAddr, nil)) })
	}

	libav.RedirectLogs(ctx)

	in, err := readInput(pflag.Arg(0), cfg.FrameRate)
	if err != nil {
		l.Fatal(err)
	}
	if in.Descriptor != "" {
		cfg.Descriptor = in.Descriptor
	}

	s, err := session.New(ctx, libav.NewFactory(cfg.HardwareDeviceType, cfg.HardwareDeviceName), cfg.Session)
	if err != nil {
		l.Fatal(err)
	}
	defer s.Close(ctx)

	s.Events.Subscribe(ctx, func(ctx context.Context, ev event.Event) {
		fmt.Printf("event: %s\n", ev)
	}, event.KindWarning, event.KindError)

	decoderCfg, err := s.ParseAndReport(ctx, cfg.Descriptor)
	if err != nil {
		l.Fatal(err)
	}
	if len(decoderCfg.Description) > 0 {
		fmt.Printf("description: %s\n", extradata.Description(decoderCfg.Description))
	}
	if !libav.IsCodecSupported(decoderCfg.Codec) {
		l.Fatalf("codec '%s' is not supported by this libav build", decoderCfg.Codec)
	}
	if err := s.Initialize(ctx, *decoderCfg); err != nil {
		l.Fatal(err)
	}

	if err := run(ctx, s, cfg, in.Chunks); err != nil {
		l.Fatal(err)
	}

	stats := s.Statistics()
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		l.Fatal(err)
	}
	fmt.Printf("submitted %s in %d chunks; frames allocated: %d\n",
		humanize.Bytes(stats.BytesSubmitted), stats.ChunksSubmitted, libav.FramesAllocated())
	fmt.Printf("statistics: %s\n", statsJSON)
}

func run(
	ctx context.Context,
	s *session.Session,
	cfg config,
	chunks []types.EncodedChunk,
) error {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / cfg.FrameRate))
	defer ticker.Stop()

	for idx, chunk := range chunks {
		if idx == cfg.SeekResetAt {
			fmt.Printf("#%d: resetting for a seek\n", idx)
			if err := s.ResetForSeek(ctx); err != nil {
				return fmt.Errorf("unable to reset for a seek: %w", err)
			}
		}

		out, err := s.Decode(ctx, chunk)
		if err != nil {
			return fmt.Errorf("unable to decode chunk #%d: %w", idx, err)
		}
		size := humanize.Bytes(uint64(len(chunk.Data)))
		if out == nil {
			fmt.Printf("#%d: %s (%s): no frame\n", idx, chunk.Type, size)
		} else {
			fmt.Printf("#%d: %s (%s): %s\n", idx, chunk.Type, size, describeOutput(out))
			out.Release()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func describeOutput(out types.DecodedOutput) string {
	if stringer, ok := out.(fmt.Stringer); ok {
		return stringer.String()
	}
	return fmt.Sprintf("output pts:%d", out.Timestamp())
}
