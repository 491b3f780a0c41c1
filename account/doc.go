// Package account holds the validated identity types shared by every store
// and by the engine: [Email], [Password] and [User].
//
// Values are only obtainable through the Parse functions, so holding an
// Email or Password means its shape has already been checked. Email
// equality is exact string equality; no case folding is applied.
package account
