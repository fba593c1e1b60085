// Package domain defines the core entities of the meal-verification system:
// meal sessions and their lifecycle, the vision model's result types, and the
// quota records used by admission control. Domain types validate themselves
// and carry no infrastructure concerns.
package domain
