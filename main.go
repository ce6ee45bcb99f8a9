package main

import (
	"fmt"
	"log"
	"os"

	"podcast-rag/pkg/feed"
)

func main() {
	// For now, hardcode the feed URL
	feedURL := "https://softwareengineeringdaily.com/feed/podcast/"

	if len(os.Args) > 1 {
		feedURL = os.Args[1]
	}

	parser := feed.NewParser()

	episodes, err := parser.ParseFromURL(feedURL)
	if err != nil {
		log.Fatalf("Failed to parse feed: %v", err)
	}

	// Print first 10 episodes
	maxEpisodes := 10
	if len(episodes) < maxEpisodes {
		maxEpisodes = len(episodes)
	}

	fmt.Printf("Found %d episodes. Showing first %d:\n\n", len(episodes), maxEpisodes)

	for i := 0; i < maxEpisodes; i++ {
		episode := episodes[i]
		fmt.Printf("Episode %d:\n", i+1)
		fmt.Printf("  Title: %s\n", episode.Title)
		fmt.Printf("  Page: %s\n", episode.PageURL)
		if episode.AudioURL != "" {
			fmt.Printf("  Audio: %s\n", episode.AudioURL)
		}
		if episode.TranscriptURL != "" {
			fmt.Printf("  Transcript: %s\n", episode.TranscriptURL)
		}
		fmt.Println()
	}
}
