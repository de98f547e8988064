package constants

// PlaceholderCategory is the classification code written to every ticket
// while the category-override policy is active. Downstream expense tooling
// assigns the real code later; the extraction service only reserves the slot.
const PlaceholderCategory = 1
