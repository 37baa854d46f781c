package main

import (
	"log"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/edubanco/recursos/core"
	"github.com/edubanco/recursos/core/session"
	"github.com/edubanco/recursos/services/bancoapi"
	inmemcache "github.com/edubanco/recursos/storage/cache/inmem"
	rediscache "github.com/edubanco/recursos/storage/cache/redis"
	inmemstore "github.com/edubanco/recursos/storage/session/inmem"
	redisstore "github.com/edubanco/recursos/storage/session/redis"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig(core.Getwd())

	var store session.Store
	var cache core.ViewCache
	if conf.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
			DB:       conf.Redis.DB,
		})
		defer rdb.Close()
		store = redisstore.NewStore(rdb)
		cache = rediscache.NewCache(rdb)
	} else {
		// without redis there is nothing shared to flush, but the commands
		// still run so scripts behave the same everywhere
		store = inmemstore.NewStore()
		cache = inmemcache.NewCache()
	}

	cli := commandLine{
		api:   bancoapi.NewClient(conf.BancoAPI),
		store: store,
		cache: cache,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
