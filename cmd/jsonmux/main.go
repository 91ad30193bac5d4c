package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jsonmux/jsonmux/internal/client"
	"github.com/jsonmux/jsonmux/internal/logging"
	"github.com/jsonmux/jsonmux/internal/protocol"
	"github.com/jsonmux/jsonmux/internal/protocol/frame"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:3000", "server address")
	width := flag.Int("width", 1, "length prefix width (1, 2 or 4)")
	msgType := flag.String("type", "", "message type field")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Parse()

	log := logging.Runtime("jsonmux")

	prefixWidth, err := frame.ParsePrefixWidth(*width)
	if err != nil {
		log.Error().Err(err).Msg("invalid width")
		os.Exit(1)
	}

	msg := protocol.Message{}
	if flag.NArg() > 0 {
		if err := json.Unmarshal([]byte(flag.Arg(0)), &msg); err != nil {
			log.Error().Err(err).Msg("payload is not a JSON object")
			os.Exit(1)
		}
		if msg == nil {
			msg = protocol.Message{}
		}
	}
	if *msgType != "" {
		msg[protocol.FieldType] = *msgType
	}

	c, err := client.Dial(*addr, client.Options{
		PrefixWidth: prefixWidth,
		DialTimeout: *timeout,
		Logger:      &log,
	})
	if err != nil {
		log.Error().Err(err).Msg("dial failed")
		os.Exit(1)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	reply, err := c.Request(ctx, msg)
	if err != nil {
		log.Error().Err(err).Msg("request failed")
		os.Exit(1)
	}

	out, err := json.MarshalIndent(reply, "", "  ")
	if err != nil {
		log.Error().Err(err).Msg("encode reply")
		os.Exit(1)
	}
	fmt.Println(string(out))
}
