// Package main provides the uvcctl command line tool and daemon for UVC
// camera property control.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	bolt "go.etcd.io/bbolt"

	"github.com/shini4i/uvcctl/internal/capability"
	"github.com/shini4i/uvcctl/internal/control"
	"github.com/shini4i/uvcctl/internal/dbus"
	"github.com/shini4i/uvcctl/internal/hotplug"
	"github.com/shini4i/uvcctl/internal/preset"
	"github.com/shini4i/uvcctl/internal/uvc"
	"github.com/shini4i/uvcctl/internal/xu"
)

var (
	verbose    bool
	setMode    string
	clampValue bool
	presetDB   string

	rootCmd = &cobra.Command{
		Use:   "uvcctl",
		Short: "Control UVC camera properties",
		Long: `uvcctl controls UVC camera properties: pan, tilt, zoom, exposure, focus,
brightness, contrast and the rest of the camera and video processing
controls, plus vendor-specific extension properties.

Run a subcommand directly for one-shot control, or start the daemon to
expose the same operations over D-Bus with hot-plug tracking.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging()
		},
	}
)

func configureLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	setCmd.Flags().StringVar(&setMode, "mode", "manual", "Control mode: auto or manual")
	setCmd.Flags().BoolVar(&clampValue, "clamp", false, "Snap the value to the nearest valid one instead of failing")

	presetCmd.PersistentFlags().StringVar(&presetDB, "db", defaultPresetDB(), "Path to the preset database")
	presetCmd.AddCommand(presetSaveCmd, presetApplyCmd, presetListCmd, presetDeleteCmd)

	vendorCmd.AddCommand(vendorQueryCmd, vendorGetCmd, vendorSetCmd)

	rootCmd.AddCommand(listCmd, getCmd, setCmd, rangeCmd, scanCmd, vendorCmd, presetCmd, daemonCmd)
}

// resolveDevice matches an identifier against enumerated devices so the full
// identity (name and path) is used where possible. Unknown identifiers are
// treated as raw device paths.
func resolveDevice(enum uvc.Enumerator, id string) control.Device {
	devices, err := enum.ListDevices()
	if err == nil {
		for _, d := range devices {
			if d.Path == id || d.Name == id {
				return d
			}
		}
	}
	return control.Device{Path: id}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected capture devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := uvc.NewEnumerator().ListDevices()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			cmd.Println("No capture devices found")
			return nil
		}
		for _, d := range devices {
			cmd.Printf("%s\t%s\n", d.Path, d.Name)
		}
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get <device> <camera|video> <property>",
	Short: "Read the current value of a property",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		pool := uvc.NewPool()
		defer pool.ClearAll()

		conn, err := pool.Get(resolveDevice(pool.Enumerator(), args[0]))
		if err != nil {
			return err
		}

		var setting control.PropSetting
		switch args[1] {
		case "camera":
			prop, err := control.ParseCamProperty(args[2])
			if err != nil {
				return err
			}
			setting, err = conn.GetCamera(prop)
			if err != nil {
				return err
			}
		case "video":
			prop, err := control.ParseVidProperty(args[2])
			if err != nil {
				return err
			}
			setting, err = conn.GetVideo(prop)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown property domain %q (want camera or video)", args[1])
		}

		cmd.Printf("%s = %d (%s)\n", args[2], setting.Value, setting.Mode)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <device> <camera|video> <property> <value>",
	Short: "Write a property value",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		value64, err := strconv.ParseInt(args[3], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[3], err)
		}
		value := int32(value64)

		var mode control.Mode
		switch setMode {
		case "auto":
			mode = control.Auto
		case "manual":
			mode = control.Manual
		default:
			return fmt.Errorf("unknown mode %q (want auto or manual)", setMode)
		}

		pool := uvc.NewPool()
		defer pool.ClearAll()

		conn, err := pool.Get(resolveDevice(pool.Enumerator(), args[0]))
		if err != nil {
			return err
		}

		switch args[1] {
		case "camera":
			prop, err := control.ParseCamProperty(args[2])
			if err != nil {
				return err
			}
			r, err := conn.CameraRange(prop)
			if err != nil {
				return err
			}
			value, err = checkValue(r, value)
			if err != nil {
				return err
			}
			return conn.SetCamera(prop, control.PropSetting{Value: value, Mode: mode})
		case "video":
			prop, err := control.ParseVidProperty(args[2])
			if err != nil {
				return err
			}
			r, err := conn.VideoRange(prop)
			if err != nil {
				return err
			}
			value, err = checkValue(r, value)
			if err != nil {
				return err
			}
			return conn.SetVideo(prop, control.PropSetting{Value: value, Mode: mode})
		default:
			return fmt.Errorf("unknown property domain %q (want camera or video)", args[1])
		}
	},
}

// checkValue validates a value against a range, snapping it when --clamp was
// given.
func checkValue(r control.PropRange, value int32) (int32, error) {
	if r.IsValid(value) {
		return value, nil
	}
	if clampValue {
		return r.Clamp(value), nil
	}
	return 0, control.Errorf(control.InvalidValue,
		"value %d outside range [%d, %d] step %d", value, r.Min, r.Max, r.Step)
}

var rangeCmd = &cobra.Command{
	Use:   "range <device> <camera|video> <property>",
	Short: "Query the supported range of a property",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		pool := uvc.NewPool()
		defer pool.ClearAll()

		conn, err := pool.Get(resolveDevice(pool.Enumerator(), args[0]))
		if err != nil {
			return err
		}

		var r control.PropRange
		switch args[1] {
		case "camera":
			prop, err := control.ParseCamProperty(args[2])
			if err != nil {
				return err
			}
			r, err = conn.CameraRange(prop)
			if err != nil {
				return err
			}
		case "video":
			prop, err := control.ParseVidProperty(args[2])
			if err != nil {
				return err
			}
			r, err = conn.VideoRange(prop)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown property domain %q (want camera or video)", args[1])
		}

		cmd.Printf("%s: min=%d max=%d step=%d default=%d (%s)\n",
			args[2], r.Min, r.Max, r.Step, r.Default, r.DefaultMode)
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan <device>",
	Short: "Scan a device for supported properties",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enum := uvc.NewEnumerator()
		caps, err := capability.Scan(enum, resolveDevice(enum, args[0]))
		if err != nil {
			return err
		}
		if !caps.Accessible() {
			cmd.Printf("%s: not accessible\n", caps.Device().ID())
			return nil
		}

		cmd.Printf("%s (%s)\n", caps.Device().Name, caps.Device().Path)
		cmd.Println("Camera controls:")
		for _, prop := range caps.SupportedCameraProperties() {
			pc := caps.Camera(prop)
			cmd.Printf("  %-24s %d (%s)  range [%d, %d] step %d\n",
				prop, pc.Current.Value, pc.Current.Mode, pc.Range.Min, pc.Range.Max, pc.Range.Step)
		}
		cmd.Println("Video controls:")
		for _, prop := range caps.SupportedVideoProperties() {
			pc := caps.Video(prop)
			cmd.Printf("  %-24s %d (%s)  range [%d, %d] step %d\n",
				prop, pc.Current.Value, pc.Current.Mode, pc.Range.Min, pc.Range.Max, pc.Range.Step)
		}
		return nil
	},
}

var vendorCmd = &cobra.Command{
	Use:   "vendor",
	Short: "Access vendor-specific extension properties",
}

var vendorQueryCmd = &cobra.Command{
	Use:   "query <device>",
	Short: "Check whether the device exposes the Logitech property set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enum := uvc.NewEnumerator()
		supported, err := xu.SupportsLogitechProperties(enum, resolveDevice(enum, args[0]))
		if err != nil {
			return err
		}
		if supported {
			cmd.Println("supported")
		} else {
			cmd.Println("not supported")
		}
		return nil
	},
}

var vendorGetCmd = &cobra.Command{
	Use:   "get <device> <property-id>",
	Short: "Read a vendor property payload",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid property id %q: %w", args[1], err)
		}

		enum := uvc.NewEnumerator()
		data, err := xu.GetLogitechProperty(enum, resolveDevice(enum, args[0]), xu.LogitechProperty(id))
		if err != nil {
			return err
		}
		cmd.Println(hex.EncodeToString(data))
		return nil
	},
}

var vendorSetCmd = &cobra.Command{
	Use:   "set <device> <property-id> <hex-data>",
	Short: "Write a vendor property payload",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid property id %q: %w", args[1], err)
		}
		data, err := hex.DecodeString(args[2])
		if err != nil {
			return fmt.Errorf("invalid hex payload: %w", err)
		}

		enum := uvc.NewEnumerator()
		return xu.SetLogitechProperty(enum, resolveDevice(enum, args[0]), xu.LogitechProperty(id), data)
	},
}

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Save and restore property snapshots",
}

func defaultPresetDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "uvcctl-presets.db"
	}
	return filepath.Join(home, ".local", "share", "uvcctl", "presets.db")
}

func openPresetStore() (*preset.Store, *bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(presetDB), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create preset directory: %w", err)
	}
	db, err := bolt.Open(presetDB, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open preset database: %w", err)
	}
	return preset.NewStore(db), db, nil
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name> <device>",
	Short: "Snapshot the current property values of a device",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		enum := uvc.NewEnumerator()
		caps, err := capability.Scan(enum, resolveDevice(enum, args[1]))
		if err != nil {
			return err
		}
		if !caps.Accessible() {
			return control.Errorf(control.DeviceNotFound, "device %s is not accessible", args[1])
		}

		store, db, err := openPresetStore()
		if err != nil {
			return err
		}
		defer closeDB(db)

		return store.Save(args[0], preset.Capture(caps))
	},
}

var presetApplyCmd = &cobra.Command{
	Use:   "apply <name> <device>",
	Short: "Apply a saved snapshot to a device",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, db, err := openPresetStore()
		if err != nil {
			return err
		}
		defer closeDB(db)

		p, err := store.Load(args[0])
		if err != nil {
			return err
		}

		pool := uvc.NewPool()
		defer pool.ClearAll()
		return preset.Apply(pool, resolveDevice(pool.Enumerator(), args[1]), p)
	},
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, db, err := openPresetStore()
		if err != nil {
			return err
		}
		defer closeDB(db)

		names, err := store.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			cmd.Println(name)
		}
		return nil
	},
}

var presetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, db, err := openPresetStore()
		if err != nil {
			return err
		}
		defer closeDB(db)

		return store.Delete(args[0])
	},
}

func closeDB(db *bolt.DB) {
	if err := db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close preset database")
	}
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the D-Bus camera control service",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runDaemon()
	},
}

func runDaemon() {
	log.Info().Msg("Starting uvcctl daemon")

	pool := uvc.NewPool()
	devices, err := pool.Enumerator().ListDevices()
	if err != nil {
		log.Error().Err(err).Msg("Failed to enumerate devices")
	} else if len(devices) == 0 {
		log.Warn().Msg("No capture devices found")
	} else {
		log.Info().Int("count", len(devices)).Msg("Found capture devices")
	}

	server := dbus.NewServer(pool)
	if err := server.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start D-Bus server")
	}

	server.SetDeviceErrorHandler(func(device string, err error) {
		log.Info().Str("device", device).Msg("Re-checking devices after device error")
		refreshDevices(pool)
	})

	monitor := hotplug.NewMonitor(createHotplugHandler(pool, server))
	monitor.SetRecoveryHandler(createRecoveryHandler(pool, server))
	if err := monitor.Start(); err != nil {
		log.Error().Err(err).Msg("Failed to start device monitor (hot-plug detection disabled)")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Info().Msg("Daemon running, press Ctrl+C to stop")
	<-sigChan

	log.Info().Msg("Shutting down...")
	if err := monitor.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop device monitor")
	}
	if err := server.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop D-Bus server")
	}
	pool.ClearAll()

	log.Info().Msg("Daemon stopped")
}

// refreshMu serializes device refresh operations so hotplug handlers and
// recovery handlers do not race each other.
var refreshMu sync.Mutex

// refreshDevices drops cached connections and re-enumerates. Connections are
// rebound lazily on the next property operation.
func refreshDevices(pool *uvc.Pool) {
	refreshMu.Lock()
	defer refreshMu.Unlock()

	pool.ClearAll()
	devices, err := pool.Enumerator().ListDevices()
	if err != nil {
		log.Error().Err(err).Msg("Device refresh failed")
		return
	}
	log.Info().Int("count", len(devices)).Msg("Device refresh completed")
}

// createHotplugHandler returns an event handler that keeps the pool in sync
// and emits D-Bus signals for device arrival and removal.
func createHotplugHandler(pool *uvc.Pool, server *dbus.Server) hotplug.EventHandler {
	return func(event hotplug.Event) {
		refreshMu.Lock()
		defer refreshMu.Unlock()

		if event.Added {
			// Devices need a moment to finish enumerating all interfaces
			// before the control endpoints are accessible.
			time.Sleep(500 * time.Millisecond)
			log.Info().Str("path", event.DevicePath).Msg("Device connected")
			server.EmitDeviceAdded(event.DevicePath)
			return
		}

		log.Info().Str("path", event.DevicePath).Msg("Device disconnected")
		pool.Evict(control.Device{Path: event.DevicePath})
		server.EmitDeviceRemoved(event.DevicePath)
	}
}

// createRecoveryHandler returns a handler for netlink buffer overflow
// recovery. Events may have been lost, so the cached connection state cannot
// be trusted and is rebuilt from scratch.
func createRecoveryHandler(pool *uvc.Pool, server *dbus.Server) hotplug.RecoveryHandler {
	return func() {
		log.Info().Msg("Performing recovery refresh after netlink buffer overflow")

		refreshMu.Lock()
		defer refreshMu.Unlock()

		// Wait a moment for any pending device operations to settle.
		time.Sleep(500 * time.Millisecond)

		pool.ClearAll()
		devices, err := pool.Enumerator().ListDevices()
		if err != nil {
			log.Error().Err(err).Msg("Recovery refresh failed")
			return
		}
		log.Info().Int("devices", len(devices)).Msg("Recovery refresh completed")
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Failed to execute command")
	}
}
