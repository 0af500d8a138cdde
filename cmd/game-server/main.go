package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"dicehall/internal/app/public"
	"dicehall/internal/config"
	"dicehall/internal/directory"
	"dicehall/internal/invite"
	"dicehall/internal/logging"
	"dicehall/internal/room"
	"dicehall/internal/session"
	"dicehall/internal/store"
	"dicehall/internal/token"
	httptransport "dicehall/internal/transport/http"
)

const tokenIssuer = "dicehall"

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}

	st, err := store.New(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}

	signer := token.NewSigner([]byte(cfg.InviteSecret), tokenIssuer)
	invites := invite.NewRegistry(signer, time.Duration(cfg.InviteTTLMins)*time.Minute)
	dir := directory.New()
	rooms := room.NewRegistry(st)

	coordinator := session.NewCoordinator(rooms, st, invites, time.Duration(cfg.SeatGraceSeconds)*time.Second)
	coordinator.StartJanitor(context.Background(), time.Minute)

	publicSvc := public.NewService(rooms, st, invites, dir)
	r := httptransport.NewRouter(publicSvc, coordinator)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.HTTPAddr).Str("data_dir", cfg.DataDir).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
