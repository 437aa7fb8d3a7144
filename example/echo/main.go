// Command resp3-echo runs a minimal resp3hub server that answers PING, QUIT,
// SET, GET, EXISTS, DEL, and DBSIZE over RESP3 — the direct successor of the
// teacher's RESP2 example server, upgraded to emit a RESP3-native Boolean
// reply for EXISTS where it improves on the RESP2 encoding.
package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"strings"
	"sync"

	"go.uber.org/zap"

	resp3hub "github.com/IceFireDB/redhub"
	"github.com/IceFireDB/redhub/pkg/resp3"
)

func main() {
	var mu sync.RWMutex
	items := make(map[string][]byte)

	var network, addr string
	var multicore, reusePort, pprofDebug bool
	var pprofAddr string
	flag.StringVar(&network, "network", "tcp", "server network")
	flag.StringVar(&addr, "addr", "127.0.0.1:6380", "server addr")
	flag.BoolVar(&multicore, "multicore", true, "multicore")
	flag.BoolVar(&reusePort, "reusePort", false, "reusePort")
	flag.BoolVar(&pprofDebug, "pprofDebug", false, "open pprof")
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
				items[string(args[0].Str)] = append([]byte(nil), args[1].Str...)
				mu.Unlock()
				out = resp3.Append(out, resp3.NewSimpleString("OK"))
			case "get":
				if len(args) != 1 {
					out = resp3.Append(out, resp3.NewSimpleError("ERR wrong number of arguments for 'get' command"))
					break
				}
				mu.RLock()
				val, ok := items[string(args[0].Str)]
				mu.RUnlock()
				if !ok {
					out = resp3.Append(out, resp3.NewNullBulkString())
				} else {
					out = resp3.Append(out, resp3.NewBulkString(val))
				}
			case "exists":
				if len(args) != 1 {
					out = resp3.Append(out, resp3.NewSimpleError("ERR wrong number of arguments for 'exists' command"))
					break
				}
				mu.RLock()
				_, ok := items[string(args[0].Str)]
				mu.RUnlock()
				out = resp3.Append(out, resp3.NewBoolean(ok))
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
			case "dbsize":
				mu.RLock()
				n := len(items)
				mu.RUnlock()
				out = resp3.Append(out, resp3.NewInteger(int64(n)))
			}
			return out, status
		},
	)

	logger, _ := zap.NewDevelopment()
	logger.Info("starting resp3 echo server", zap.String("addr", addr))
	if err := resp3hub.ListenAndServe(protoAddr, options, hub); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
