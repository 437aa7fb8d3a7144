// Command resp3-memory-kv is an in-memory key/value demo with expiring keys:
// beside PING, QUIT, SET, GET, and DEL it serves SETEX, answers TTL probes
// as a RESP3 Double, and returns every live key/value pair from DUMP as a
// native RESP3 Map reply.
package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	resp3hub "github.com/IceFireDB/redhub"
	"github.com/IceFireDB/redhub/pkg/resp3"
)

type entry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

func main() {
	var mu sync.RWMutex
	items := make(map[string]entry)

	var network, addr string
	var multicore, reusePort, pprofDebug bool
	var pprofAddr string
	flag.StringVar(&network, "network", "tcp", "server network")
	flag.StringVar(&addr, "addr", "127.0.0.1:6380", "server address")
	flag.BoolVar(&multicore, "multicore", true, "enable multicore support")
	flag.BoolVar(&reusePort, "reusePort", false, "enable port reuse")
	flag.BoolVar(&pprofDebug, "pprofDebug", false, "enable pprof debugging")
	flag.StringVar(&pprofAddr, "pprofAddr", ":8888", "pprof address")
	flag.Parse()

	if pprofDebug {
		go func() {
			_ = http.ListenAndServe(pprofAddr, nil)
		}()
	}

	protoAddr := fmt.Sprintf("%s://%s", network, addr)
	options := resp3hub.Options{
		Multicore:   multicore,
		ReusePort:   reusePort,
		MaxDepth:    32,
		MaxElements: 1 << 20,
	}

	hub := resp3hub.NewHub(
		func(c *resp3hub.Conn) (out []byte, action resp3hub.Action) {
			return nil, resp3hub.None
		},
		func(c *resp3hub.Conn, err error) (action resp3hub.Action) {
			return resp3hub.None
		},
		func(c *resp3hub.Conn, v resp3.Value, out []byte) ([]byte, resp3hub.Action) {
			status := resp3hub.None
			if v.Kind != resp3.Array || len(v.Elems) == 0 {
				out = resp3.Append(out, resp3.NewSimpleError("ERR expected a command array"))
				return out, status
			}
			name := strings.ToLower(string(v.Elems[0].Str))
			args := v.Elems[1:]

			switch name {
			default:
				out = resp3.Append(out, resp3.NewSimpleError("ERR unknown command '"+name+"'"))
			case "ping":
				out = resp3.Append(out, resp3.NewSimpleString("PONG"))
			case "quit":
				out = resp3.Append(out, resp3.NewSimpleString("OK"))
				status = resp3hub.Close
			case "set":
				if len(args) != 2 {
					out = resp3.Append(out, resp3.NewSimpleError("ERR wrong number of arguments for 'set' command"))
					break
				}
				mu.Lock()
				items[string(args[0].Str)] = entry{value: append([]byte(nil), args[1].Str...)}
				mu.Unlock()
				out = resp3.Append(out, resp3.NewSimpleString("OK"))
			case "setex":
				if len(args) != 3 {
					out = resp3.Append(out, resp3.NewSimpleError("ERR wrong number of arguments for 'setex' command"))
					break
				}
				seconds, err := strconv.ParseInt(string(args[1].Str), 10, 64)
				if err != nil || seconds <= 0 {
					out = resp3.Append(out, resp3.NewSimpleError("ERR invalid expire time in 'setex' command"))
					break
				}
				mu.Lock()
				items[string(args[0].Str)] = entry{
					value:   append([]byte(nil), args[2].Str...),
					expires: time.Now().Add(time.Duration(seconds) * time.Second),
				}
				mu.Unlock()
				out = resp3.Append(out, resp3.NewSimpleString("OK"))
			case "get":
				if len(args) != 1 {
					out = resp3.Append(out, resp3.NewSimpleError("ERR wrong number of arguments for 'get' command"))
					break
				}
				mu.Lock()
				e, ok := lookup(items, string(args[0].Str))
				mu.Unlock()
				if !ok {
					out = resp3.Append(out, resp3.NewNullBulkString())
				} else {
					out = resp3.Append(out, resp3.NewBulkString(e.value))
				}
			case "ttl":
				if len(args) != 1 {
					out = resp3.Append(out, resp3.NewSimpleError("ERR wrong number of arguments for 'ttl' command"))
					break
				}
				mu.Lock()
				e, ok := lookup(items, string(args[0].Str))
				mu.Unlock()
				switch {
				case !ok:
					out = resp3.Append(out, resp3.NewDouble(-2))
				case e.expires.IsZero():
					out = resp3.Append(out, resp3.NewDouble(-1))
				default:
					out = resp3.Append(out, resp3.NewDouble(time.Until(e.expires).Seconds()))
				}
			case "del":
				if len(args) != 1 {
					out = resp3.Append(out, resp3.NewSimpleError("ERR wrong number of arguments for 'del' command"))
					break
				}
				mu.Lock()
				_, ok := items[string(args[0].Str)]
				delete(items, string(args[0].Str))
				mu.Unlock()
				if ok {
					out = resp3.Append(out, resp3.NewInteger(1))
				} else {
					out = resp3.Append(out, resp3.NewInteger(0))
				}
			case "dump":
				// Returns every live key/value pair as a single RESP3 Map,
				// exercising the aggregate type a plain RESP2 server has no
				// way to express natively.
				mu.Lock()
				pairs := make([]resp3.KVPair, 0, len(items))
				now := time.Now()
				for k, e := range items {
					if !e.expires.IsZero() && now.After(e.expires) {
						continue
					}
					pairs = append(pairs, resp3.KVPair{
						Key:   resp3.NewSimpleString(k),
						Value: resp3.NewBulkString(e.value),
					})
				}
				mu.Unlock()
				out = resp3.Append(out, resp3.NewMap(pairs))
			}
			return out, status
		},
	)

	logger, _ := zap.NewDevelopment()
	logger.Info("starting resp3 memory_kv server", zap.String("addr", addr))
	if err := resp3hub.ListenAndServe(protoAddr, options, hub); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

// lookup returns the entry for key if present and unexpired, evicting it
// lazily if its TTL has passed.
func lookup(items map[string]entry, key string) (entry, bool) {
	e, ok := items[key]
	if !ok {
		return entry{}, false
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		delete(items, key)
		return entry{}, false
	}
	return e, true
}
