package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"os"

	"github.com/hashicorp/logutils"
	"github.com/jancona/convfec/bits"
	"github.com/jancona/convfec/config"
	"github.com/jancona/convfec/conv"
)

// Stream chunk sizes, in pattern periods
const (
	encodeChunkPeriods = 64
	decodeChunkPeriods = 64
)

var (
	isDebugArg    *bool   = flag.Bool("debug", false, "Emit debug log messages")
	logDestArg    *string = flag.String("log", "", "Device/file for log (default stderr)")
	configArg     *string = flag.String("config", "", "INI configuration file")
	modeArg       *string = flag.String("mode", "selftest", "One of encode, decode, selftest")
	rateArg       *string = flag.String("rate", config.DefaultRate, "Code rate: 1/2, 2/3, 3/4 or 5/6")
	patternArg    *string = flag.String("pattern", "", "Puncture pattern, overrides the pattern of -rate")
	tracebackArg  *int    = flag.Int("traceback", 0, "Traceback depth, overrides the depth of -rate")
	frameArg      *int    = flag.Int("frame", 0, "Payload bytes per CRC protected frame (0 for raw bit streams)")
	continuousArg *bool   = flag.Bool("continuous", false, "Decode a raw bit stream continuously instead of as one terminated block")
	inArg         *string = flag.String("in", "", "Input (default stdin)")
	outArg        *string = flag.String("out", "", "Output (default stdout)")
	serialArg     *string = flag.String("serial", "", "Serial device used for encoder output or decoder input")
	baudArg       *int    = flag.Int("baud", config.DefaultBaud, "Serial baud rate")
	bitsArg       *int    = flag.Int("bits", 4096, "Plaintext bits per self test block")
	errorsArg     *int    = flag.Int("errors", 0, "Bit errors injected into each self test block")
	blocksArg     *int    = flag.Int("blocks", 16, "Number of self test blocks")
	seedArg       *uint64 = flag.Uint64("seed", 1, "Self test random seed")
	helpArg       *bool   = flag.Bool("h", false, "Print arguments")
)

func main() {
	flag.Parse()

	if *helpArg {
		flag.Usage()
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		flag.Usage()
		log.Fatalf("Bad configuration: %v", err)
	}
	setupLogging(cfg.LogLevel)

	profile, err := cfg.Profile()
	if err != nil {
		log.Fatalf("Bad codec configuration: %v", err)
	}
	log.Printf("[DEBUG] Profile %s, puncture pattern %s, traceback depth %d", profile.Name, profile.Pattern, profile.TracebackDepth)

	switch *modeArg {
	case "selftest":
		res, err := selfTest(profile, *bitsArg, *errorsArg, *blocksArg, rand.New(rand.NewPCG(*seedArg, *seedArg)))
		if err != nil {
			log.Fatalf("[ERROR] Self test failed: %v", err)
		}
		log.Printf("[INFO] %s", res)
		if res.InjectedErrors == 0 && res.ResidualErrors > 0 {
			os.Exit(1)
		}
	case "encode":
		err = runEncode(cfg, profile)
	case "decode":
		err = runDecode(cfg, profile)
	default:
		flag.Usage()
		log.Fatalf("Unknown mode %q", *modeArg)
	}
	if err != nil {
		log.Fatalf("[ERROR] %s failed: %v", *modeArg, err)
	}
}

// loadConfig reads the optional config file and applies the flags given on the command line.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configArg != "" {
		var err error
		cfg, err = config.Load(*configArg)
		if err != nil {
			return nil, err
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			cfg.Rate = *rateArg
		case "pattern":
			cfg.Pattern = *patternArg
		case "traceback":
			cfg.Traceback = *tracebackArg
		case "frame":
			cfg.FrameSize = *frameArg
		case "serial":
			cfg.Serial = *serialArg
		case "baud":
			cfg.Baud = *baudArg
		}
	})
	if *isDebugArg {
		cfg.LogLevel = "DEBUG"
	}
	return cfg, cfg.Validate()
}

func setupLogging(minLogLevel string) {
	var err error
	logWriter := os.Stderr
	if *logDestArg != "" {
		logWriter, err = os.OpenFile(*logDestArg, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Error opening log output, exiting: %v", err)
		}
	}

	filter := &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "ERROR"},
		MinLevel: logutils.LogLevel(minLogLevel),
		Writer:   logWriter,
	}
	log.SetOutput(filter)
	log.Print("[DEBUG] Debug is on")
}

func runEncode(cfg *config.Config, profile conv.Profile) error {
	in, err := openInput(*inArg, "", 0)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := openOutput(*outArg, cfg.Serial, cfg.Baud)
	if err != nil {
		return err
	}
	defer out.Close()

	if cfg.FrameSize > 0 {
		return encodeFrames(in, out, profile, cfg.FrameSize)
	}
	enc, err := profile.NewEncoder()
	if err != nil {
		return err
	}
	plain, err := readBits(in)
	if err != nil {
		return err
	}
	chunk := encodeChunkPeriods * profile.Pattern.Len() / 2
	return runStage(plain, chunk, out, func(sink chan bits.Vector) *conv.CodecStage {
		return conv.NewEncodeStage(sink, enc, 1)
	})
}

func runDecode(cfg *config.Config, profile conv.Profile) error {
	in, err := openInput(*inArg, cfg.Serial, cfg.Baud)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := openOutput(*outArg, "", 0)
	if err != nil {
		return err
	}
	defer out.Close()

	coded, err := readBits(in)
	if err != nil {
		return err
	}
	if cfg.FrameSize > 0 {
		return decodeFrames(coded, out, profile, cfg.FrameSize)
	}
	dec, err := profile.NewDecoder()
	if err != nil {
		return err
	}
	if *continuousArg {
		chunk := decodeChunkPeriods * profile.Pattern.Ones()
		return runStage(coded, chunk, out, func(sink chan bits.Vector) *conv.CodecStage {
			return conv.NewDecodeStage(sink, dec, 1)
		})
	}
	plain, err := dec.DecodeTerminated(coded)
	if err != nil {
		return err
	}
	log.Printf("[DEBUG] Decoded %d bits, path metric: %d", len(plain), dec.PathMetric())
	return writeBits(out, plain)
}

// runStage feeds v to a codec stage in chunks and writes whatever comes out.
func runStage(v bits.Vector, chunk int, out io.Writer, newStage func(chan bits.Vector) *conv.CodecStage) error {
	sink := make(chan bits.Vector)
	stage := newStage(sink)
	go func() {
		for i := 0; i < len(v); i += chunk {
			sink <- v[i:min(i+chunk, len(v))]
		}
		close(sink)
	}()

	var result bits.Vector
	for c := range stage.Source() {
		result = append(result, c...)
	}
	if err := stage.Err(); err != nil {
		return err
	}
	return writeBits(out, result)
}

func encodeFrames(in io.Reader, out io.Writer, profile conv.Profile, payloadLen int) error {
	fc, err := conv.NewFrameCodec(profile, payloadLen)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	for i := 0; i < len(data); i += payloadLen {
		payload := make([]byte, payloadLen)
		copy(payload, data[i:])
		coded, err := fc.Encode(payload)
		if err != nil {
			return err
		}
		if err := writeBits(out, coded); err != nil {
			return err
		}
	}
	log.Printf("[DEBUG] Encoded %d bytes in %d frames of %d bits", len(data), (len(data)+payloadLen-1)/payloadLen, fc.EncodedLen())
	return nil
}

func decodeFrames(coded bits.Vector, out io.Writer, profile conv.Profile, payloadLen int) error {
	fc, err := conv.NewFrameCodec(profile, payloadLen)
	if err != nil {
		return err
	}
	frameLen := fc.EncodedLen()
	if len(coded)%frameLen != 0 {
		return fmt.Errorf("%w: %d bits is not a whole number of %d bit frames", conv.ErrInvalidInput, len(coded), frameLen)
	}
	bad := 0
	for i := 0; i < len(coded); i += frameLen {
		payload, metric, err := fc.Decode(coded[i : i+frameLen])
		if errors.Is(err, conv.ErrBadCRC) {
			log.Printf("[ERROR] Frame %d dropped: %v", i/frameLen, err)
			bad++
			continue
		} else if err != nil {
			return err
		}
		log.Printf("[DEBUG] Frame %d Viterbi error: %d", i/frameLen, metric)
		if _, err := out.Write(payload); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if bad > 0 {
		log.Printf("[INFO] %d of %d frames failed the CRC check", bad, len(coded)/frameLen)
	}
	return nil
}
