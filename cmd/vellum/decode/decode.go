// Package decodecmder
package decodecmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/scriptoriumco/vellum/pkg/citations"
	"github.com/scriptoriumco/vellum/pkg/citations/inmemory"
	"github.com/scriptoriumco/vellum/pkg/citations/sqlite"
	"github.com/scriptoriumco/vellum/pkg/cliui"
	"github.com/scriptoriumco/vellum/pkg/config"
	"github.com/scriptoriumco/vellum/pkg/decoder"
	"github.com/scriptoriumco/vellum/pkg/decoder/marker"
	"github.com/scriptoriumco/vellum/pkg/decoder/sse"
	"github.com/scriptoriumco/vellum/pkg/dotdir"
	"github.com/scriptoriumco/vellum/pkg/effects"
	"github.com/scriptoriumco/vellum/pkg/eventstream"
	kafkapub "github.com/scriptoriumco/vellum/pkg/eventstream/kafka"
	noppub "github.com/scriptoriumco/vellum/pkg/eventstream/nop"
	"github.com/scriptoriumco/vellum/pkg/logger"
	"github.com/scriptoriumco/vellum/pkg/message"
	"github.com/scriptoriumco/vellum/pkg/scheduler"
)

const decodeLongDesc string = `Decode an agent response stream into structured message parts.

Reads from a file argument or stdin ("-" or no argument), runs the stream
through the configured protocol decoder, and prints the final part list as
JSON. Editor side effects (insert text, citations, thema) fire against the
configured citation store and command publisher as tool results complete.

Examples:
  cat stream.txt | vellum decode
  vellum decode --protocol sse response.sse
  vellum decode --follow --protocol marker live-stream.txt
  vellum decode --publisher kafka --kafka-brokers localhost:9092 stream.txt`

// decodeFlags defines every config-backed flag the decode command exposes.
var decodeFlags = config.FlagSet{
	config.FlagProtocol: {
		Name:        "protocol",
		Shorthand:   "p",
		ViperKey:    "decoder.protocol",
		Description: "Stream protocol: marker or sse",
	},
	config.FlagDebounce: {
		Name:        "debounce-ms",
		ViperKey:    "decoder.debounce_ms",
		Description: "Render debounce window in milliseconds",
	},
	config.FlagCitationsDriver: {
		Name:        "citations-driver",
		ViperKey:    "citations.driver",
		Description: "Citation store backend: inmemory or sqlite",
	},
	config.FlagSQLite: {
		Name:        "sqlite",
		ViperKey:    "citations.sqlite_path",
		Description: "SQLite database path for the sqlite citation driver",
	},
	config.FlagPublisher: {
		Name:        "publisher",
		ViperKey:    "events.publisher",
		Description: "Editor command transport: nop or kafka",
	},
	config.FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "events.kafka_brokers",
		Description: "Comma-separated Kafka broker list",
	},
	config.FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "events.kafka_topic",
		Description: "Kafka topic for editor commands",
	},
}

// decodeFlagKeys are the registry keys bound to viper before config reads.
var decodeFlagKeys = []string{
	config.FlagProtocol,
	config.FlagDebounce,
	config.FlagCitationsDriver,
	config.FlagSQLite,
	config.FlagPublisher,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
}

// DecodeCommander holds the resolved configuration for one decode run.
type DecodeCommander struct {
	Protocol     string
	DebounceMS   uint
	Driver       string
	SQLitePath   string
	Publisher    string
	KafkaBrokers string
	KafkaTopic   string

	SessionID string
	InputPath string
	Follow    bool
	Pretty    bool
	Live      bool
	ConfigDir string

	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func NewDecodeCmd() *cobra.Command {
	var (
		protocolFlag     string
		debounceFlag     uint
		driverFlag       string
		sqliteFlag       string
		publisherFlag    string
		kafkaBrokersFlag string
		kafkaTopicFlag   string
	)

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode an agent response stream",
		Long:  decodeLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, decodeFlags, decodeFlagKeys)

			follow, _ := cmd.Flags().GetBool("follow")
			pretty, _ := cmd.Flags().GetBool("pretty")
			live, _ := cmd.Flags().GetBool("live")
			sessionID, _ := cmd.Flags().GetString("session")

			inputPath := ""
			if len(args) == 1 {
				inputPath = args[0]
			}

			cmder := &DecodeCommander{
				Protocol:     v.GetString("decoder.protocol"),
				DebounceMS:   v.GetUint("decoder.debounce_ms"),
				Driver:       v.GetString("citations.driver"),
				SQLitePath:   v.GetString("citations.sqlite_path"),
				Publisher:    v.GetString("events.publisher"),
				KafkaBrokers: v.GetString("events.kafka_brokers"),
				KafkaTopic:   v.GetString("events.kafka_topic"),
				SessionID:    sessionID,
				InputPath:    inputPath,
				Follow:       follow,
				Pretty:       pretty,
				Live:         live,
				ConfigDir:    configDir,
				logger: logger.New(
					logger.WithPretty(true),
					logger.WithDebug(debug),
					logger.WithWriter(cmd.ErrOrStderr()),
				),
				stdin:  cmd.InOrStdin(),
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
			}

			return cmder.run(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, decodeFlags, config.FlagProtocol, &protocolFlag)
	config.AddUintFlag(cmd, decodeFlags, config.FlagDebounce, &debounceFlag)
	config.AddStringFlag(cmd, decodeFlags, config.FlagCitationsDriver, &driverFlag)
	config.AddStringFlag(cmd, decodeFlags, config.FlagSQLite, &sqliteFlag)
	config.AddStringFlag(cmd, decodeFlags, config.FlagPublisher, &publisherFlag)
	config.AddStringFlag(cmd, decodeFlags, config.FlagKafkaBrokers, &kafkaBrokersFlag)
	config.AddStringFlag(cmd, decodeFlags, config.FlagKafkaTopic, &kafkaTopicFlag)

	cmd.Flags().Bool("follow", false, "Keep reading as the input file grows (requires a file argument)")
	cmd.Flags().Bool("pretty", false, "Render the decoded message as markdown instead of JSON")
	cmd.Flags().Bool("live", false, "Print a JSON snapshot line on every debounced render")
	cmd.Flags().String("session", "", "Session id attached to outbound events (default: random)")

	_ = cmd.RegisterFlagCompletionFunc("protocol", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"marker", "sse"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("citations-driver", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"inmemory", "sqlite"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("publisher", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{"nop", "kafka"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (cmder *DecodeCommander) run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmder.SessionID == "" {
		cmder.SessionID = uuid.NewString()
	}

	proto, err := cmder.protocol()
	if err != nil {
		return err
	}

	store, closeStore, err := cmder.citationStore()
	if err != nil {
		return err
	}
	defer closeStore()

	// Mark the persisted active library so addCitation lookups search it first.
	ddm := dotdir.NewManager()
	if state, err := ddm.LoadLibraryState(cmder.ConfigDir); err != nil {
		cmder.logger.Warn("could not load library state", "error", err)
	} else if state != nil && state.ActiveLibraryID != "" {
		if err := store.SetActive(ctx, state.ActiveLibraryID); err != nil {
			cmder.logger.Warn("could not set active library", "library_id", state.ActiveLibraryID, "error", err)
		}
	}

	ports, closePorts, err := cmder.ports(proto.Name())
	if err != nil {
		return err
	}
	defer closePorts()

	dispatcher := effects.NewDispatcher(ports,
		effects.WithCitationStore(store),
		effects.WithLogger(cmder.logger),
	)

	enc := json.NewEncoder(cmder.stdout)
	var onUpdate func(parts []message.Part)
	if cmder.Live {
		onUpdate = func(parts []message.Part) {
			if err := enc.Encode(parts); err != nil {
				cmder.logger.Warn("could not write snapshot", "error", err)
			}
		}
	}

	session := decoder.NewSession(decoder.Config{
		SessionID:  cmder.SessionID,
		Dispatcher: dispatcher,
		OnUpdate:   onUpdate,
		SchedulerOptions: []scheduler.Option{
			scheduler.WithWindow(time.Duration(cmder.DebounceMS) * time.Millisecond),
		},
		Logger: cmder.logger,
	})

	input, closeInput, err := cmder.input(ctx)
	if err != nil {
		return err
	}
	defer closeInput()

	cmder.logger.Debug("decoding stream",
		"protocol", proto.Name(),
		"session_id", cmder.SessionID,
		"input", displayPath(cmder.InputPath),
	)

	decode := func() error {
		return decoder.Run(ctx, input, session, proto)
	}

	var runErr error
	if cmder.Pretty {
		// Human-facing mode gets the spinner step on stderr; JSON output
		// stays machine-clean.
		runErr = cliui.Step(cmder.stderr, "Decoding "+displayPath(cmder.InputPath), decode)
	} else {
		runErr = decode()
	}
	if runErr != nil && ctx.Err() == nil {
		return fmt.Errorf("decoding stream: %w", runErr)
	}

	return cmder.writeResult(session.Snapshot())
}

// protocol resolves the configured protocol name to a decoder implementation.
func (cmder *DecodeCommander) protocol() (decoder.Protocol, error) {
	switch cmder.Protocol {
	case "marker":
		return marker.New(), nil
	case "sse":
		return sse.New(), nil
	default:
		return nil, fmt.Errorf("unknown protocol %q (expected marker or sse)", cmder.Protocol)
	}
}

// citationStore opens the configured citation store backend.
func (cmder *DecodeCommander) citationStore() (citations.Driver, func(), error) {
	switch cmder.Driver {
	case "inmemory":
		return inmemory.NewDriver(), func() {}, nil
	case "sqlite":
		d, err := sqlite.NewDriver(cmder.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening citation store: %w", err)
		}
		return d, func() { _ = d.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown citations driver %q (expected inmemory or sqlite)", cmder.Driver)
	}
}

// ports builds the editor command sink for the configured publisher.
func (cmder *DecodeCommander) ports(protocolName string) (effects.Ports, func(), error) {
	source := eventstream.EventSource{
		SessionID: cmder.SessionID,
		Protocol:  protocolName,
	}

	switch cmder.Publisher {
	case "nop":
		return effects.NewPublisherPorts(noppub.NewPublisher(), source), func() {}, nil
	case "kafka":
		brokers := splitBrokers(cmder.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, nil, fmt.Errorf("kafka publisher requires at least one broker")
		}
		pub := kafkapub.NewPublisher(brokers, cmder.KafkaTopic)
		return effects.NewPublisherPorts(pub, source), func() { _ = pub.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown publisher %q (expected nop or kafka)", cmder.Publisher)
	}
}

// input opens the stream source: a file, a tailed file with --follow,
// or stdin.
func (cmder *DecodeCommander) input(ctx context.Context) (io.Reader, func(), error) {
	if cmder.InputPath == "" || cmder.InputPath == "-" {
		if cmder.Follow {
			return nil, nil, fmt.Errorf("--follow requires a file argument")
		}
		return cmder.stdin, func() {}, nil
	}

	if cmder.Follow {
		fr, err := newFollowReader(ctx, cmder.InputPath)
		if err != nil {
			return nil, nil, fmt.Errorf("following %s: %w", cmder.InputPath, err)
		}
		return fr, func() { _ = fr.Close() }, nil
	}

	f, err := os.Open(cmder.InputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", cmder.InputPath, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func (cmder *DecodeCommander) writeResult(parts []message.Part) error {
	if cmder.Pretty {
		rendered, err := renderParts(parts)
		if err != nil {
			cmder.logger.Warn("markdown rendering failed, falling back to plain output", "error", err)
		}
		_, err = fmt.Fprint(cmder.stdout, rendered)
		return err
	}

	out, err := json.MarshalIndent(parts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling parts: %w", err)
	}
	_, err = fmt.Fprintln(cmder.stdout, string(out))
	return err
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func displayPath(path string) string {
	if path == "" || path == "-" {
		return "stdin"
	}
	return path
}
