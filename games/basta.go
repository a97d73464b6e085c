package games

// A round starts with a shared random letter, weighted towards common letters
// Each player fills in one word per category, each word starting with the round's letter
// Any player can call "Basta!" to end the answer phase, or the round timer ends it
// Players then rate each other's answers (bad / good / great); you cannot rate your own
// An answer counts if a strict majority of the other players approved it
// Unique approved answers are worth 100 points, duplicated ones 50
// The base score is split across the raters; each "great" adds a flat 50 on top
// The host tallies scores and advances to the next round, or ends the game

// Display formats:
// - Answer phase: one text field per category, plus the big Basta button
// - Voting phase: each foreign answer with three rating buttons

// Implementation details:
// - Use websockets to push game state to all connected players
// - Identify players by cookie on first connection
// - Host controls: start, tally, advance, kick; leaving as host ends the game

// How to play
// - One player creates the game and shares the code (or QR)
// - Others join and press ready; the host starts once everyone is ready
// - Rounds repeat until the configured round count is reached
// - Highest total score wins
