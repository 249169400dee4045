// Package ppclient provides the primary entry point for constructing a
// subscription-billing API client that implements the paybill.Client interface.
//
// It layers configuration, HTTP transport, the credential session and the
// resource cache on top of the interfaces and types defined in the paybill
// package. Most applications import ppclient to build a client, identify it,
// then use Plans() and Products().
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/paybill/pkg/paybill"
//	  "github.com/fivetwenty-io/paybill/pkg/ppclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := ppclient.New(ctx, &paybill.Config{
//	    ClientID:    "AeA1QIZXiflr1_-r0U2UbWTziOWX1GRQer5wl",
//	    Secret:      "ECYYrrSHdKfk_Q0EdvzdGkzj58a66kKaUQ5dZA",
//	    Environment: "sandbox",
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  // Nothing reaches the platform before Identify succeeds.
//	  if err := cli.Identify(ctx); err != nil { log.Fatal(err) }
//
//	  plans, err := cli.Plans().List(ctx, &paybill.PlanListOptions{All: true})
//	  if err != nil { log.Fatal(err) }
//	  for _, plan := range plans.Values() {
//	    log.Printf("%s %s %s", plan.ID, plan.Name, plan.Status)
//	  }
//	}
//
// Sharing the cache
//
// Setting Config.Cache to a NATS cache configuration keeps an in-process LRU
// in front of a JetStream key-value bucket, so several processes reuse each
// other's fetched plans and products:
//
//	cfg.Cache = paybill.NewCacheBuilder().
//	  WithType(paybill.CacheTypeNATS).
//	  WithNATSConfig(&paybill.NATSKVConfig{URL: "nats://127.0.0.1:4222"}).
//	  Config()
package ppclient
