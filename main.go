// SPDX-License-Identifier: MPL-2.0

package main

import cmd "ivytrigger/cmd/ivytrigger"

func main() {
	cmd.Execute()
}
