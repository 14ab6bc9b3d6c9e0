// Package complexity scores a construct tree. Every construct gets branch,
// nesting depth, statement and dataset counts over its subtree; the whole
// program gets a weighted 0-100 score and a translation priority.
package complexity
