package utils

import (
	"fmt"
	"math/rand"
)

// Word lists for generating bot display names
var adjectives = []string{
	"Swift", "Brave", "Clever", "Noble", "Mighty", "Silent", "Golden", "Silver",
	"Crystal", "Shadow", "Crimson", "Azure", "Cosmic", "Ancient", "Mystic", "Royal",
	"Fierce", "Gentle", "Wild", "Calm", "Bold", "Wise", "Quick", "Keen",
	"Dark", "Light", "Storm", "Frost", "Fire", "Iron", "Steel", "Stone",
	"Thunder", "Winter", "Summer", "Spring", "Autumn", "Night", "Dawn", "Dusk",
	"Lunar", "Solar", "Stellar", "Void", "Phantom", "Ghost", "Spirit", "Soul",
}

var nouns = []string{
	"Paddle", "Striker", "Volley", "Rally", "Smasher", "Server", "Returner", "Spinner",
	"Wolf", "Bear", "Eagle", "Hawk", "Lion", "Tiger", "Falcon", "Serpent",
	"Guardian", "Sentinel", "Watcher", "Keeper", "Seeker", "Rider", "Walker", "Runner",
	"Champion", "Hunter", "Warrior", "Captain", "Marshal", "Ace", "Blazer", "Dasher",
}

// GenerateBotName generates a display name for a synthetic opponent in
// the format "AdjectiveNoun123".
func GenerateBotName() string {
	adjective := adjectives[rand.Intn(len(adjectives))]
	noun := nouns[rand.Intn(len(nouns))]
	number := rand.Intn(900) + 100
	return fmt.Sprintf("%s%s%d", adjective, noun, number)
}
