package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"robot-service/internal/logger"
	"robot-service/internal/types"

	"github.com/redis/go-redis/v9"
)

// Redis keys and channels
const (
	RobotHash     = "robot"
	CommandsHash  = "robot:commands"
	SettingsHash  = "settings"
	ImuHash       = "imu"
	LimelightHash = "limelight"
	EventStream   = "events:robot"

	ModeList    = "robot:mode"
	ChooserList = "robot:chooser"
	HeadingList = "robot:heading"

	settingsPrefix = "robot."

	// BRPOP timeout; bounds how long Close waits for list listeners
	listPollTimeout = time.Second
)

type Callbacks struct {
	ModeCallback        func(string) error               // "disabled", "autonomous", "teleop", "estop"
	ChooserCallback     func(chooser, label string) error // chooser is "auto" or "drive"
	HeadingCallback     func(float64) error               // gyro yaw in degrees
	ZeroHeadingCallback func() error
	VisionCallback      func(tx, ta float64, valid bool) error
	SettingsCallback    func(map[string]string) error // robot.* settings with the prefix stripped
}

type RedisClient struct {
	client    *redis.Client
	callbacks Callbacks
	logger    *logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewRedisClient(addr string, db int, l *logger.Logger) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		}),
		logger: l,
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetCallbacks must be called before StartListening.
func (r *RedisClient) SetCallbacks(callbacks Callbacks) {
	r.callbacks = callbacks
}

func (r *RedisClient) Connect() error {
	r.logger.Infof("Attempting to connect to Redis at %s", r.client.Options().Addr)

	if err := r.client.Ping(r.ctx).Err(); err != nil {
		r.logger.Infof("Redis connection failed: %v", err)
		return fmt.Errorf("Redis connection failed: %w", err)
	}
	r.logger.Infof("Successfully connected to Redis")

	// seed the sensor caches so the first cycles do not run on zeros
	r.processImuMessage("yaw")
	r.processLimelightMessage()
	return nil
}

// StartListening starts all Redis listeners after system initialization is complete
func (r *RedisClient) StartListening() error {
	r.logger.Infof("Starting Redis listeners")

	pubsub := r.client.Subscribe(r.ctx, ImuHash, LimelightHash, SettingsHash)
	r.logger.Infof("Subscribed to Redis channels: imu, limelight, settings")

	r.wg.Add(1)
	go r.redisListener(pubsub)

	r.wg.Add(3)
	go r.listCommandListener(ModeList, r.handleModeCommand)
	go r.listCommandListener(ChooserList, r.handleChooserCommand)
	go r.listCommandListener(HeadingList, r.handleHeadingCommand)

	return nil
}

func (r *RedisClient) listCommandListener(key string, handler func(string) error) {
	defer r.wg.Done()
	r.logger.Infof("Starting list command listener for %s", key)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting %s listener", key)
			return
		default:
			result, err := r.client.BRPop(r.ctx, listPollTimeout, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if errors.Is(err, context.Canceled) || r.ctx.Err() != nil {
					r.logger.Infof("Context cancelled, exiting %s listener", key)
					return
				}
				r.logger.Warnf("Error reading from %s list: %v", key, err)
				time.Sleep(100 * time.Millisecond)
				continue
			}

			if len(result) >= 2 { // BRPOP returns [key, value]
				value := result[1]
				r.logger.Debugf("Received command from %s: %s", key, value)
				if err := handler(value); err != nil {
					r.logger.Warnf("Error handling %s command: %v", key, err)
				}
			}
		}
	}
}

func (r *RedisClient) handleModeCommand(value string) error {
	if r.callbacks.ModeCallback == nil {
		return nil
	}
	switch value {
	case "disabled", "autonomous", "teleop", "estop":
		return r.callbacks.ModeCallback(value)
	default:
		r.logger.Infof("Invalid mode command value: %s", value)
		return fmt.Errorf("invalid mode command: %s", value)
	}
}

// handleChooserCommand takes "<chooser>:<label>", e.g. "auto:Drive Forward".
func (r *RedisClient) handleChooserCommand(value string) error {
	if r.callbacks.ChooserCallback == nil {
		return nil
	}
	chooser, label, ok := strings.Cut(value, ":")
	if !ok || label == "" {
		return fmt.Errorf("invalid chooser command: %s", value)
	}
	switch chooser {
	case "auto", "drive":
		return r.callbacks.ChooserCallback(chooser, label)
	default:
		return fmt.Errorf("unknown chooser: %s", chooser)
	}
}

func (r *RedisClient) handleHeadingCommand(value string) error {
	if r.callbacks.ZeroHeadingCallback == nil {
		return nil
	}
	if value != "zero" {
		return fmt.Errorf("invalid heading command: %s", value)
	}
	return r.callbacks.ZeroHeadingCallback()
}

func (r *RedisClient) redisListener(pubsub *redis.PubSub) {
	defer r.wg.Done()
	defer pubsub.Close()

	r.logger.Infof("Starting Redis message listener")
	channel := pubsub.Channel()

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting listener")
			return
		case msg, ok := <-channel:
			if !ok || msg == nil {
				if r.ctx.Err() != nil {
					return
				}
				r.logger.Fatalf("Redis connection lost, exiting to allow systemd restart")
			}

			r.logger.Debugf("Received Redis message: channel=%s payload=%s", msg.Channel, msg.Payload)

			switch msg.Channel {
			case ImuHash:
				r.processImuMessage(msg.Payload)
			case LimelightHash:
				r.processLimelightMessage()
			case SettingsHash:
				if !strings.HasPrefix(msg.Payload, settingsPrefix) {
					continue
				}
				r.processSettingsMessage()
			}
		}
	}
}

func (r *RedisClient) processImuMessage(field string) {
	if field != "yaw" || r.callbacks.HeadingCallback == nil {
		return
	}
	value, err := r.client.HGet(r.ctx, ImuHash, field).Result()
	if errors.Is(err, redis.Nil) {
		return
	}
	if err != nil {
		r.logger.Infof("Error reading imu %s: %v", field, err)
		return
	}
	yaw, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.logger.Infof("Invalid imu yaw %q: %v", value, err)
		return
	}
	if err := r.callbacks.HeadingCallback(yaw); err != nil {
		r.logger.Infof("Failed to handle heading update: %v", err)
	}
}

func (r *RedisClient) processLimelightMessage() {
	if r.callbacks.VisionCallback == nil {
		return
	}
	values, err := r.client.HMGet(r.ctx, LimelightHash, "tx", "ta", "tv").Result()
	if err != nil {
		r.logger.Infof("Error reading limelight: %v", err)
		return
	}
	tx, txOK := parseFloatField(values[0])
	ta, taOK := parseFloatField(values[1])
	tv, _ := parseFloatField(values[2])
	valid := txOK && taOK && tv >= 1

	if err := r.callbacks.VisionCallback(tx, ta, valid); err != nil {
		r.logger.Infof("Failed to handle vision update: %v", err)
	}
}

func (r *RedisClient) processSettingsMessage() {
	if r.callbacks.SettingsCallback == nil {
		return
	}
	settings, err := r.GetSettings()
	if err != nil {
		r.logger.Infof("Failed to read settings: %v", err)
		return
	}
	r.logger.Infof("Processing settings update (%d robot settings)", len(settings))
	if err := r.callbacks.SettingsCallback(settings); err != nil {
		r.logger.Infof("Failed to handle settings update: %v", err)
	}
}

func parseFloatField(v interface{}) (float64, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// GetSettings returns the robot.* fields of the settings hash with the
// prefix stripped.
func (r *RedisClient) GetSettings() (map[string]string, error) {
	all, err := r.client.HGetAll(r.ctx, SettingsHash).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	settings := make(map[string]string)
	for k, v := range all {
		if key, ok := strings.CutPrefix(k, settingsPrefix); ok {
			settings[key] = v
		}
	}
	return settings, nil
}

// PublishTelemetry writes the snapshot to the robot hashes and notifies
// subscribers in one pipeline.
func (r *RedisClient) PublishTelemetry(t types.Telemetry) error {
	fields := map[string]interface{}{
		"mode":           string(t.Mode),
		"enabled":        strconv.FormatBool(t.Enabled),
		"cycle":          t.Cycle,
		"timestamp":      t.Timestamp.Format(time.RFC3339Nano),
		"running":        strings.Join(t.Running, ","),
		"auto:selected":  t.AutoSelected,
		"auto:options":   strings.Join(t.AutoOptions, ","),
		"drive:selected": t.DriveSelected,
		"drive:options":  strings.Join(t.DriveOptions, ","),
		"heading":        strconv.FormatFloat(t.HeadingDegrees, 'f', 2, 64),
	}

	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, RobotHash, fields)
	if len(t.Commands) > 0 {
		commands := make(map[string]interface{}, len(t.Commands))
		for sub, cmd := range t.Commands {
			commands[sub] = cmd
		}
		pipe.HSet(r.ctx, CommandsHash, commands)
	}
	pipe.Publish(r.ctx, RobotHash, "telemetry")
	_, err := pipe.Exec(r.ctx)
	if err != nil {
		return fmt.Errorf("failed to publish telemetry: %w", err)
	}
	return nil
}

func (r *RedisClient) PublishMode(mode types.RobotMode) error {
	r.logger.Infof("Publishing robot mode: %s", mode)
	timestamp := time.Now().Format(time.RFC3339)

	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, RobotHash, "mode", string(mode))
	pipe.HSet(r.ctx, RobotHash, "mode:timestamp", timestamp)
	pipe.Publish(r.ctx, RobotHash, "mode")
	_, err := pipe.Exec(r.ctx)

	if err != nil {
		r.logger.Warnf("Failed to publish robot mode: %v", err)
		return err
	}
	return nil
}

// PublishEvent appends an event to the robot event stream.
func (r *RedisClient) PublishEvent(event string, fields map[string]interface{}) error {
	values := map[string]interface{}{
		"event": event,
		"ts":    time.Now().UnixMilli(),
	}
	for k, v := range fields {
		values[k] = v
	}
	err := r.client.XAdd(r.ctx, &redis.XAddArgs{
		Stream: EventStream,
		MaxLen: 1000,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event, err)
	}
	return nil
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Infof("All Redis goroutines finished")
	case <-time.After(5 * time.Second):
		r.logger.Infof("Timeout waiting for Redis goroutines to finish")
	}

	return r.client.Close()
}
