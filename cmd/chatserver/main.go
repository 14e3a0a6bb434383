package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/rsslry1/WhoU/internal/protocol"
	"github.com/rsslry1/WhoU/internal/session"
	"github.com/rsslry1/WhoU/internal/ws"
)

func main() {
	config := ws.DefaultServerConfig()

	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		config.ListenAddr = addr
	}
	if v := os.Getenv("WORKER_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.WorkerPoolSize = n
		}
	}
	if v := os.Getenv("MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.MaxConnections = n
		}
	}
	if v := os.Getenv("READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.ReadTimeout = d
		}
	}
	if v := os.Getenv("WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			config.WriteTimeout = d
		}
	}
	if v := os.Getenv("CONNECT_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			config.ConnectRate = rate.Limit(f)
		}
	}

	sessionConfig := session.DefaultConfig()
	if v := os.Getenv("IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			sessionConfig.IdleTimeout = d
		}
	}
	reapInterval := session.DefaultReapInterval
	if v := os.Getenv("REAP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			reapInterval = d
		}
	}

	log.Printf("WhoU chat server starting")
	log.Printf("  listen_addr:     %s", config.ListenAddr)
	log.Printf("  worker_pool:     %d", config.WorkerPoolSize)
	log.Printf("  max_connections: %d", config.MaxConnections)
	log.Printf("  read_timeout:    %s", config.ReadTimeout)
	log.Printf("  write_timeout:   %s", config.WriteTimeout)
	log.Printf("  idle_timeout:    %s", sessionConfig.IdleTimeout)
	log.Printf("  reap_interval:   %s", reapInterval)
	log.Println("Privacy: no chat history is stored; all state is discarded on exit")

	dispatcher := ws.NewMessageDispatcher(nil)
	server := ws.NewServer(config, dispatcher.Dispatch)
	dispatcher.SetServer(server)

	manager := session.NewManager(sessionConfig, server)

	server.SetOnConnect(manager.OnConnect)
	server.SetOnDisconnect(manager.OnDisconnect)

	dispatcher.Register(protocol.TypeJoinQueue, func(conn *ws.Connection, msg interface{}) {
		m, ok := msg.(protocol.JoinQueueMsg)
		if !ok {
			return
		}
		manager.OnJoinQueue(conn.ID, m.Username)
	})

	dispatcher.Register(protocol.TypeMessage, func(conn *ws.Connection, msg interface{}) {
		m, ok := msg.(protocol.ChatMsg)
		if !ok {
			return
		}
		manager.OnMessage(conn.ID, m.Message)
	})

	dispatcher.Register(protocol.TypeTyping, func(conn *ws.Connection, msg interface{}) {
		manager.OnTyping(conn.ID)
	})

	dispatcher.Register(protocol.TypeStoppedTyping, func(conn *ws.Connection, msg interface{}) {
		manager.OnStoppedTyping(conn.ID)
	})

	dispatcher.Register(protocol.TypeNext, func(conn *ws.Connection, msg interface{}) {
		manager.OnNext(conn.ID)
	})

	dispatcher.Register(protocol.TypeReport, func(conn *ws.Connection, msg interface{}) {
		m, ok := msg.(protocol.ReportMsg)
		if !ok {
			return
		}
		manager.OnReport(conn.ID, m.Reason)
	})

	dispatcher.Register(protocol.TypeLeaveChat, func(conn *ws.Connection, msg interface{}) {
		manager.OnLeaveChat(conn.ID)
	})

	// Inactivity reaper: closes transport connections for idle users; the
	// resulting disconnect callbacks run the normal teardown.
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	session.StartReaper(reaperCtx, manager, server, reapInterval)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, initiating graceful shutdown...", sig)
		stopReaper()
		if err := server.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
