// Command plan resolves two addresses and prints the scored route selection,
// without the database or broker. Useful for checking provider settings.
//
//	plan -from "Charminar, Hyderabad" -to "Hitech City, Hyderabad"
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kr/pretty"

	"github.com/samirrijal/saferoute/internal/app"
	"github.com/samirrijal/saferoute/internal/pkg/config"
	"github.com/samirrijal/saferoute/internal/pkg/logging"
)

func main() {
	from := flag.String("from", "", "source address")
	to := flag.String("to", "", "destination address")
	verbose := flag.Bool("v", false, "print full route geometry")
	flag.Parse()

	if *from == "" || *to == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load("saferoute-plan")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(os.Getenv("LOG_LEVEL"), "text")

	providers, err := app.NewProviders(cfg.Providers)
	if err != nil {
		log.Fatalf("providers: %v", err)
	}
	svc := app.NewServices(cfg, providers, app.Options{})

	ctx, cancel := context.WithTimeout(context.Background(), app.RequestTimeout(cfg))
	defer cancel()

	start := time.Now()
	nav, err := svc.Navigation.Navigate(ctx, "", *from, *to)
	if err != nil {
		log.Fatalf("navigate: %v", err)
	}

	if !*verbose {
		for i := range nav.Selection.Routes {
			nav.Selection.Routes[i].Geometry.Coordinates = nil
		}
		nav.StreetLights = nil
	}

	fmt.Printf("%s -> %s (%s)\n", nav.Source.DisplayName, nav.Destination.DisplayName, time.Since(start).Round(time.Millisecond))
	for _, r := range nav.Selection.Routes {
		marker := " "
		if r.Safest {
			marker = "*"
		}
		fmt.Printf("%s #%d %-15s score=%-3d %s km %d min\n", marker, r.Rank, r.Kind, r.SafetyScore, r.DistanceKm, r.DurationMin)
	}
	pretty.Println(nav)
}
