// Command dispenser runs the dispensing station controller: it polls the
// start, emergency-stop, limit and object inputs, drives the motor, pump and
// valve servo, and publishes what it does to MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/dispenser/internal/actuator"
	"github.com/sweeney/dispenser/internal/gpio"
	"github.com/sweeney/dispenser/internal/logic"
	"github.com/sweeney/dispenser/internal/mqtt"
	"github.com/sweeney/dispenser/internal/status"
	"github.com/sweeney/dispenser/internal/web"
)

const (
	gpioChip         = "gpiochip0"
	resourceInterval = time.Minute
)

type options struct {
	poll       time.Duration
	heartbeat  time.Duration
	broker     string
	httpAddr   string
	inPins     gpio.Pins
	outPins    actuator.Pins
	servoPin   string
	printState bool
}

func main() {
	poll := flag.Duration("poll", 10*time.Millisecond, "GPIO polling interval")
	debounce := flag.Duration("debounce", logic.DefaultDebounce, "Input debounce duration (0 to disable)")
	doses := flag.String("doses", logic.DefaultConfig().Doses.String(), "Comma-separated dose multipliers, one per stage")
	doseUnit := flag.Duration("dose-unit", logic.DefaultDoseUnit, "Valve open time per dose multiplier")
	pump := flag.Duration("pump", logic.DefaultPumpDuration, "Pump run time per stage")
	openAngle := flag.Int("open-angle", logic.DefaultValveOpenAngle, "Valve servo angle when open (degrees)")
	closeAngle := flag.Int("close-angle", logic.DefaultValveCloseAngle, "Valve servo angle when closed (degrees)")
	strictEStop := flag.Bool("strict-estop", false, "Honour the emergency stop during a dispense cycle")
	pinStart := flag.Int("pin-start", gpio.DefaultPinStart, "BCM pin number for the start button")
	pinEStop := flag.Int("pin-estop", gpio.DefaultPinEStop, "BCM pin number for the emergency stop")
	pinLimit := flag.Int("pin-limit", gpio.DefaultPinLimit, "BCM pin number for the limit switch")
	pinObject := flag.Int("pin-object", gpio.DefaultPinObject, "BCM pin number for the object sensor")
	pinMotor := flag.Int("pin-motor", actuator.DefaultPinMotor, "BCM pin number for the motor enable")
	pinPump := flag.Int("pin-pump", actuator.DefaultPinPump, "BCM pin number for the pump enable")
	servoPin := flag.String("servo-pin", actuator.DefaultServoPin, "PWM-capable pin driving the valve servo")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address (empty to disable)")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	printState := flag.Bool("print-state", false, "Print current input state and exit")
	envFile := flag.String("config", defaultEnvFile, "KEY=value settings file (DISPENSER_POLL=20ms, ...)")

	flag.Parse()

	explicit := false
	flag.Visit(func(f *flag.Flag) { explicit = explicit || f.Name == "config" })
	if err := applyEnvFile(flag.CommandLine, *envFile, explicit); err != nil {
		log.Fatalf("fatal: config: %v", err)
	}

	schedule, err := logic.ParseDoseSchedule(*doses)
	if err != nil {
		log.Fatalf("fatal: -doses: %v", err)
	}
	cfg := logic.Config{
		Doses:           schedule,
		DoseUnit:        *doseUnit,
		PumpDuration:    *pump,
		ValveOpenAngle:  *openAngle,
		ValveCloseAngle: *closeAngle,
		Debounce:        *debounce,
		Interlock:       logic.InterlockLegacy,
	}
	if *strictEStop {
		cfg.Interlock = logic.InterlockStrict
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	opts := options{
		poll:       *poll,
		heartbeat:  *heartbeat,
		broker:     *broker,
		httpAddr:   *httpAddr,
		inPins:     gpio.Pins{Start: *pinStart, EStop: *pinEStop, Limit: *pinLimit, Object: *pinObject},
		outPins:    actuator.Pins{Motor: *pinMotor, Pump: *pinPump},
		servoPin:   *servoPin,
		printState: *printState,
	}
	if err := run(cfg, opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg logic.Config, opts options) error {
	// Initialize GPIO inputs
	reader, err := gpio.NewRealReader(gpioChip, opts.inPins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer reader.Close()

	// Print state mode
	if opts.printState {
		s, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		fmt.Println(formatSample(s))
		return nil
	}

	// Initialize outputs and put them at rest before anything else runs
	driver, err := actuator.NewRealDriver(gpioChip, opts.outPins, opts.servoPin)
	if err != nil {
		return fmt.Errorf("init actuators: %w", err)
	}
	defer driver.Close()
	if err := actuator.ApplyAll(driver, cfg.Rest()); err != nil {
		return fmt.Errorf("rest actuators: %w", err)
	}

	// Initialize MQTT
	var publisher mqtt.Publisher = mqtt.Discard
	if opts.broker != "" {
		publisher = mqtt.NewRealPublisher(opts.broker)
	} else {
		log.Printf("mqtt disabled")
	}
	defer publisher.Close()
	mqttStatus, _ := publisher.(mqtt.ConnectionStatus)

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:          opts.poll.Milliseconds(),
		DebounceMs:      cfg.Debounce.Milliseconds(),
		HeartbeatMs:     opts.heartbeat.Milliseconds(),
		Doses:           cfg.Doses.String(),
		DoseUnitMs:      cfg.DoseUnit.Milliseconds(),
		PumpMs:          cfg.PumpDuration.Milliseconds(),
		ValveOpenAngle:  cfg.ValveOpenAngle,
		ValveCloseAngle: cfg.ValveCloseAngle,
		Interlock:       string(cfg.Interlock),
		Broker:          opts.broker,
		HTTPPort:        opts.httpAddr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sampleResources(ctx, tracker, resourceInterval)

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	log.Printf("started: poll=%v debounce=%v doses=%s dose-unit=%v pump=%v cycle=%v interlock=%s broker=%q heartbeat=%v",
		opts.poll, cfg.Debounce, cfg.Doses, cfg.DoseUnit, cfg.PumpDuration, cfg.CycleTime(), cfg.Interlock, opts.broker, opts.heartbeat)

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, driver, publisher, mqttStatus, tracker, cfg, opts.heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(reader gpio.Reader, driver actuator.Driver, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, cfg logic.Config, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	ctrl := logic.NewController(cfg, startTime)
	applied := ctrl.Outputs()

	refresh := func() {
		if tracker == nil {
			return
		}
		tracker.Update(status.FromController(ctrl))
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			if err := actuator.ApplyAll(driver, cfg.Rest()); err != nil {
				log.Printf("failed to rest actuators: %v", err)
			}

			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				refresh()
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			s, err := reader.Read()
			if err != nil {
				log.Printf("gpio read error: %v", err)
				continue
			}

			events := ctrl.Step(logic.Input{
				Start:  s.Start,
				EStop:  s.EStop,
				Limit:  s.Limit,
				Object: s.Object,
				Time:   t,
			})

			// Apply outputs before publishing.
			next := ctrl.Outputs()
			if next != applied {
				if err := actuator.Apply(driver, applied, next); err != nil {
					log.Printf("actuator error: %v", err)
				} else {
					applied = next
				}
			}

			for _, event := range events {
				logEvent(event)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
				}
			}

			if hb := ctrl.CheckHeartbeat(t, heartbeat); hb != nil {
				log.Printf("heartbeat: uptime=%v arms=%d cycles=%d estops=%d aborted=%d",
					hb.Uptime, hb.Counts.Arms, hb.Counts.Cycles, hb.Counts.EStops, hb.Counts.Aborted)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hb.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					refresh()
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			refresh()
		}
	}
}

// sampleResources records the daemon's CPU and memory use until ctx is done.
func sampleResources(ctx context.Context, tracker *status.Tracker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if r, err := status.ReadResources(); err != nil {
			log.Printf("resource sample error: %v", err)
		} else {
			tracker.SetResources(r)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func logEvent(e logic.Event) {
	if e.Stage > 0 {
		log.Printf("%s [%s stage=%d]", e.Message(), e.State, e.Stage)
		return
	}
	log.Printf("%s [%s]", e.Message(), e.State)
}

func formatSample(s gpio.Sample) string {
	return fmt.Sprintf("START: %s, ESTOP: %s, LIMIT: %s, OBJECT: %s",
		onOff(s.Start), onOff(s.EStop), onOff(s.Limit), onOff(s.Object))
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
