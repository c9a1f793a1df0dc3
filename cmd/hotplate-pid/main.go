// Command hotplate-pid closes a PID temperature loop around an IR-sensed
// hot plate: clock/data GPIO bits from the thermometer feed the frame
// decoder, the PID output drives a time-proportioned relay, and the
// operator tunes gains live over a serial console. Samples and lifecycle
// events are published to MQTT, with an HTTP status page on the side.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/hwalsh/hotplate-pid/internal/command"
	"github.com/hwalsh/hotplate-pid/internal/config"
	"github.com/hwalsh/hotplate-pid/internal/controller"
	"github.com/hwalsh/hotplate-pid/internal/decoder"
	"github.com/hwalsh/hotplate-pid/internal/gpio"
	"github.com/hwalsh/hotplate-pid/internal/heater"
	"github.com/hwalsh/hotplate-pid/internal/pid"
	"github.com/hwalsh/hotplate-pid/internal/sensor"
	"github.com/hwalsh/hotplate-pid/internal/status"
	"github.com/hwalsh/hotplate-pid/internal/store"
	"github.com/hwalsh/hotplate-pid/internal/telemetry"
	"github.com/hwalsh/hotplate-pid/internal/web"
)

func main() {
	configPath := flag.String("config", "/etc/hotplate-pid/config.yaml", "Path to the YAML config file")
	serialPort := flag.String("serial", "", "Serial console port (overrides config)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", "", "HTTP status address (overrides config, \"off\" disables)")
	storePath := flag.String("store", "", "Settings file path (overrides config)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalw("load config", "path", *configPath, "error", err)
	}
	if *serialPort != "" {
		cfg.Serial.Port = *serialPort
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}
	if *httpAddr != "" {
		cfg.HTTP.Addr = *httpAddr
	}
	if cfg.HTTP.Addr == "off" {
		cfg.HTTP.Addr = ""
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}

	if err := run(cfg, log); err != nil {
		log.Fatalw("fatal", "error", err)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	st, err := store.OpenFile(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open settings store: %w", err)
	}
	defer st.Close()

	dec := decoder.New()
	sen := sensor.New(dec, int(cfg.Control.SensorTimeoutMs))

	pidCtl, err := pid.New(st)
	if err != nil {
		return fmt.Errorf("init pid: %w", err)
	}

	relay, err := gpio.NewRealRelay(cfg.Pins.Relay)
	if err != nil {
		return fmt.Errorf("init relay: %w", err)
	}
	defer relay.Close()

	heat := heater.New(relay, int(cfg.Control.HeaterWindowMs))

	ctl, err := controller.New(sen, pidCtl, heat, st, int(cfg.Control.PIDIntervalMs), cfg.Control.LossThreshold)
	if err != nil {
		return fmt.Errorf("init controller: %w", err)
	}

	// Thermometer bits arrive on the gpiocdev event goroutine; the decoder
	// hands completed frames to the tick loop through its ready flag.
	line, err := gpio.NewRealSensorLine(cfg.Pins.Clock, cfg.Pins.Data)
	if err != nil {
		return fmt.Errorf("init sensor line: %w", err)
	}
	defer line.Close()
	if err := line.Watch(dec.ClockEdge); err != nil {
		return fmt.Errorf("watch sensor clock: %w", err)
	}

	port, err := serial.Open(cfg.Serial.Port, &serial.Mode{BaudRate: cfg.Serial.Baud})
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", cfg.Serial.Port, err)
	}
	defer port.Close()

	bytes := make(chan byte, 64)
	go readSerial(port, bytes, log)

	proc := command.New(ctl, port, int(cfg.Control.AutoPrintMs))
	if err := proc.PrintWelcome(); err != nil {
		log.Warnw("print welcome", "error", err)
	}

	publisher, err := telemetry.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, log)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		PIDIntervalMs:   cfg.Control.PIDIntervalMs,
		HeaterWindowMs:  cfg.Control.HeaterWindowMs,
		SensorTimeoutMs: cfg.Control.SensorTimeoutMs,
		LossThreshold:   cfg.Control.LossThreshold,
		HeartbeatMs:     cfg.MQTT.HeartbeatMs,
		Broker:          cfg.MQTT.Broker,
		HTTPAddr:        cfg.HTTP.Addr,
		SerialPort:      cfg.Serial.Port,
	})

	tracker.SetMQTTConnected(publisher.IsConnected())
	startup := telemetry.SystemEvent{
		Timestamp:  time.Now(),
		Event:      "STARTUP",
		RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "STARTUP", ""),
		Retained:   true,
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warnw("publish startup event", "error", err)
	} else {
		log.Infow("published startup event")
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorw("http server", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infow("http status server listening", "addr", cfg.HTTP.Addr)
	}

	log.Infow("started",
		"serial", cfg.Serial.Port,
		"broker", cfg.MQTT.Broker,
		"pid_interval_ms", cfg.Control.PIDIntervalMs,
		"heater_window_ms", cfg.Control.HeaterWindowMs,
		"target_c", ctl.TargetTemp())

	ticker := time.NewTicker(time.Duration(cfg.Control.TickMs) * time.Millisecond)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	start := time.Now()
	millis := func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	}

	var heartbeatMillis uint32
	if cfg.MQTT.HeartbeatMs > 0 {
		heartbeatMillis = uint32(cfg.MQTT.HeartbeatMs)
	}

	return runLoop(ctl, proc, publisher, publisher, tracker, log, millis, heartbeatMillis, ticker.C, bytes, sigCh)
}

// runLoop is the cooperative scheduler: one tick advances the whole
// control loop, serial bytes are applied between ticks, a HEARTBEAT
// status snapshot goes out every heartbeatMillis, and a signal shuts
// everything down after a retained SHUTDOWN event.
func runLoop(ctl *controller.Controller, proc *command.Processor, publisher telemetry.Publisher, mqttStatus telemetry.ConnectionStatus, tracker *status.Tracker, log *zap.SugaredLogger, millis func() uint32, heartbeatMillis uint32, tick <-chan time.Time, bytes <-chan byte, sig <-chan os.Signal) error {
	var lastHeartbeat uint32
	for {
		select {
		case s := <-sig:
			log.Infow("shutting down", "signal", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := telemetry.SystemEvent{
				Timestamp: time.Now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warnw("publish shutdown event", "error", err)
			} else {
				log.Infow("published shutdown event")
			}
			return nil

		case b := <-bytes:
			if err := proc.HandleByte(b); err != nil {
				log.Warnw("command failed", "byte", string(b), "error", err)
			}

		case <-tick:
			now := millis()
			updated, err := ctl.Tick(now)
			if err != nil {
				log.Warnw("relay drive error", "error", err)
			}
			if err := proc.AutoPrint(now); err != nil {
				log.Warnw("status print error", "error", err)
			}

			if !updated {
				continue
			}

			pTerm, iTerm, dTerm := ctl.PIDTerms()
			sample := telemetry.Sample{
				Timestamp: time.Now(),
				Target:    ctl.TargetTemp(),
				Current:   ctl.LastTemperature(),
				Ambient:   ctl.AmbientTemperature(),
				PTerm:     pTerm,
				ITerm:     iTerm,
				DTerm:     dTerm,
				Power:     ctl.HeatPower(),
				RelayOn:   ctl.RelayOn(),
				Timeouts:  ctl.ConsecutiveTimeouts(),
			}
			if err := publisher.PublishSample(sample); err != nil {
				// Telemetry never stops the control loop.
				log.Warnw("publish sample", "error", err)
			}

			if tracker != nil {
				tracker.Update(status.State{
					Target:     ctl.TargetTemp(),
					Current:    ctl.LastTemperature(),
					Ambient:    ctl.AmbientTemperature(),
					PGain:      ctl.P(),
					IGain:      ctl.I(),
					DGain:      ctl.D(),
					Power:      ctl.HeatPower(),
					RelayOn:    ctl.RelayOn(),
					Timeouts:   ctl.ConsecutiveTimeouts(),
					SensorLost: ctl.SensorLost(),
				})
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}

				if heartbeatMillis > 0 {
					if now < lastHeartbeat {
						lastHeartbeat = 0
					}
					if now-lastHeartbeat >= heartbeatMillis {
						lastHeartbeat = now
						hb := telemetry.SystemEvent{
							Timestamp:  time.Now(),
							Event:      "HEARTBEAT",
							RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", ""),
						}
						if err := publisher.PublishSystem(hb); err != nil {
							log.Warnw("publish heartbeat", "error", err)
						}
					}
				}
			}
		}
	}
}

// readSerial pumps operator bytes from the console port into the loop.
// A full channel drops input rather than stalling the reader.
func readSerial(port serial.Port, bytes chan<- byte, log *zap.SugaredLogger) {
	buf := make([]byte, 64)
	for {
		n, err := port.Read(buf)
		if err != nil {
			log.Warnw("serial read", "error", err)
			return
		}
		for _, b := range buf[:n] {
			select {
			case bytes <- b:
			default:
			}
		}
	}
}
