package deck

var defaultCards = []string{
	"Preparing to have a tough conversation by practicing it first with an AI bot.",
	"Using a friend's photo to create a deep fake video as a joke.",
	"Sharing someone's social media post without their permission.",
	"Creating a group chat to plan a surprise party for a friend.",
	"Using an app to track your child's location for safety.",
	"Posting pictures of your children on social media without their consent.",
	"Using video calls to stay connected with long-distance family members.",
	"Checking your partner's phone without their knowledge.",
	"Playing online multiplayer games with friends during a pandemic.",
	"Using AI to write personalized messages to loved ones.",
	"Asking a chatbot for advice before talking to a friend about a problem.",
	"Letting a smart speaker listen in on family dinners.",
	"Using a dating app that matches people with an algorithm.",
	"Reading an AI summary of a group chat instead of the messages themselves.",
	"Turning on read receipts so friends know when you have seen their message.",
	"Sending a voice note instead of calling someone back.",
	"Having an AI companion app to talk to when you feel lonely.",
	"Sharing your live location with close friends at all times.",
	"Using a filter that changes how you look on every video call.",
	"Muting a friend's stories without telling them.",
	"Letting an AI draft your apology to someone you hurt.",
	"Joining an online community of strangers who share a rare hobby.",
	"Looking up a new acquaintance online before meeting them again.",
	"Using a translation app to talk with a grandparent in their first language.",
}

// Default returns the built-in 24 prompt deck.
func Default() *Deck {
	d, _ := New(defaultCards)
	return d
}
