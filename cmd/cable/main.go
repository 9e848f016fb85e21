// Command cable is a demo Cable client: it connects to a Cable
// server, logs inbound messages, and echoes inbound requests.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"

	"github.com/tzrikka/cable/internal/config"
	"github.com/tzrikka/cable/internal/logger"
	"github.com/tzrikka/cable/pkg/cable"
	"github.com/tzrikka/cable/pkg/metrics"
	"github.com/tzrikka/cable/pkg/packet"
	"github.com/tzrikka/xdg"
)

const (
	ConfigDirName  = "cable"
	ConfigFileName = "config.toml"
)

func main() {
	bi, _ := debug.ReadBuildInfo()

	cmd := &cli.Command{
		Name:    "cable",
		Usage:   "Connect to a Cable server, log messages, echo requests",
		Version: bi.Main.Version,
		Flags:   flags(),
		Action:  run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func flags() []cli.Flag {
	path := configFile()
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "dev",
			Usage: "simple setup, but unsafe for production",
		},
		&cli.BoolFlag{
			Name:  "pretty-log",
			Usage: "human-readable console logging, instead of JSON",
		},
		&cli.StringFlag{
			Name:  "url",
			Usage: "Cable server URL (\"ws://...\" or \"wss://...\")",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CABLE_URL"),
				toml.TOML("cable.url", path),
			),
		},
		&cli.StringFlag{
			Name:  "user-id",
			Usage: "identity: user ID",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CABLE_USER_ID"),
				toml.TOML("cable.user_id", path),
			),
		},
		&cli.StringFlag{
			Name:  "client-id",
			Usage: "identity: client ID",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CABLE_CLIENT_ID"),
				toml.TOML("cable.client_id", path),
			),
		},
		&cli.StringFlag{
			Name:  "password",
			Usage: "identity: password",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CABLE_PASSWORD"),
				toml.TOML("cable.password", path),
			),
		},
		&cli.StringFlag{
			Name:      "profile",
			Usage:     "YAML connection profile (overrides url/identity flags)",
			TakesFile: true,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CABLE_PROFILE"),
				toml.TOML("cable.profile", path),
			),
		},
		&cli.DurationFlag{
			Name:  "ping-interval",
			Usage: "heartbeat period",
			Value: cable.DefaultPingInterval,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CABLE_PING_INTERVAL"),
				toml.TOML("cable.ping_interval", path),
			),
		},
		&cli.DurationFlag{
			Name:  "ping-timeout",
			Usage: "heartbeat pong deadline",
			Value: cable.DefaultPingTimeout,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CABLE_PING_TIMEOUT"),
				toml.TOML("cable.ping_timeout", path),
			),
		},
		&cli.DurationFlag{
			Name:  "request-timeout",
			Usage: "per-request response deadline",
			Value: cable.DefaultRequestTimeout,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CABLE_REQUEST_TIMEOUT"),
				toml.TOML("cable.request_timeout", path),
			),
		},
		&cli.DurationFlag{
			Name:  "message-timeout",
			Usage: "per-attempt ack deadline for QoS-1 messages",
			Value: cable.DefaultMessageTimeout,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CABLE_MESSAGE_TIMEOUT"),
				toml.TOML("cable.message_timeout", path),
			),
		},
		&cli.IntFlag{
			Name:  "message-max-retry",
			Usage: "QoS-1 retransmissions before giving up",
			Value: cable.DefaultMessageMaxRetry,
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CABLE_MESSAGE_MAX_RETRY"),
				toml.TOML("cable.message_max_retry", path),
			),
		},
		&cli.IntFlag{
			Name:  "retry-limit",
			Usage: "reconnect attempts between successful handshakes (0 = unlimited)",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CABLE_RETRY_LIMIT"),
				toml.TOML("cable.retry_limit", path),
			),
		},
		&cli.BoolFlag{
			Name:  "metrics",
			Usage: "record packet counters in local CSV files",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar("CABLE_METRICS"),
				toml.TOML("cable.metrics", path),
			),
		},
	}
}

// configFile returns the path to the app's configuration file.
// It also creates an empty file if it doesn't already exist.
func configFile() altsrc.StringSourcer {
	path, err := xdg.CreateFile(xdg.ConfigHome, ConfigDirName, ConfigFileName)
	if err != nil {
		logger.FatalError("failed to create config file", err)
	}
	return altsrc.StringSourcer(path)
}

// initLog initializes the global logger, based on whether
// the app is running in development mode or not.
func initLog(devMode bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if devMode {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	initLog(cmd.Bool("dev") || cmd.Bool("pretty-log"))

	url := cmd.String("url")
	id := packet.Identity{
		UserID:   cmd.String("user-id"),
		ClientID: cmd.String("client-id"),
		Password: cmd.String("password"),
	}

	if path := cmd.String("profile"); path != "" {
		p, err := config.LoadProfile(path)
		if err != nil {
			return err
		}
		url = p.URL
		id = p.Identity()
	}
	if url == "" {
		return fmt.Errorf("missing Cable server URL")
	}

	c := cable.New(url,
		cable.WithLogger(log.Logger),
		cable.WithPingInterval(cmd.Duration("ping-interval")),
		cable.WithPingTimeout(cmd.Duration("ping-timeout")),
		cable.WithRequestTimeout(cmd.Duration("request-timeout")),
		cable.WithMessageTimeout(cmd.Duration("message-timeout")),
		cable.WithMessageMaxRetry(cmd.Int("message-max-retry")),
		cable.WithHandler(&echoHandler{countPackets: cmd.Bool("metrics")}),
	)
	c.AutoRetry(cable.RetryOptions{Limit: cmd.Int("retry-limit")})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Connect(ctx, id); err != nil {
		return err
	}
	log.Info().Str("url", url).Str("client_id", c.ID()).Msg("connected")

	<-ctx.Done()
	c.Close(packet.CloseNormal)
	return nil
}

// echoHandler logs inbound messages and answers
// every inbound request with its own body.
type echoHandler struct {
	countPackets bool
}

func (h *echoHandler) OnStatus(_ *cable.Client, s cable.Status) {
	log.Info().Stringer("status", s).Msg("session status changed")
}

func (h *echoHandler) OnMessage(_ *cable.Client, m *packet.Message) {
	log.Info().Uint8("kind", m.Kind).Int("size", len(m.Payload)).
		Bool("dup", m.Dup).Msg("received message")
	if h.countPackets {
		metrics.CountInboundPacket(log.Logger, time.Now().UTC(), m.Type().String())
	}
}

func (h *echoHandler) OnRequest(_ *cable.Client, r *packet.Request) *packet.Response {
	log.Info().Str("method", r.Method).Int("size", len(r.Body)).Msg("received request")
	if h.countPackets {
		metrics.CountInboundPacket(log.Logger, time.Now().UTC(), r.Type().String())
	}
	return r.Response(packet.StatusOK, r.Body)
}
